package filelogger

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docdrop/lib/logx"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		s   string
		c   UseColor
		bad bool
	}{
		{"", ColorAuto, false},
		{"auto", ColorAuto, false},
		{"ON", ColorOn, false},
		{"false", ColorOff, false},
		{"rainbow", ColorAuto, true},
	}
	for _, tt := range tests {
		c, err := ParseColor(tt.s)
		if (err != nil) != tt.bad || c != tt.c {
			t.Errorf("ParseColor(%q) = %v, %v", tt.s, c, err)
		}
	}
}

func TestFileLoggerLines(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "log")
	f, err := os.Create(fn)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	l, err := NewFileLogger(f, logx.INFO, ColorOff)
	if err != nil {
		t.Fatal(err)
	}
	lg := logx.NewLogToX(l, "sect")
	lg.LogPrint(logx.DEBUG, "hidden")
	lg.LogPrintf(logx.WARN, "one\ntwo")
	lg.LogPrintln(logx.INFO, "three")

	b, err := os.ReadFile(fn)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(string(b), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines: %q", len(lines), b)
	}
	want := []string{" WARNING [sect] one", " WARNING [sect] two", "    INFO [sect] three"}
	for i, w := range want {
		if !strings.HasSuffix(lines[i], w) {
			t.Errorf("line %d = %q, want suffix %q", i, lines[i], w)
		}
	}
	if strings.Contains(string(b), "hidden") {
		t.Errorf("DEBUG message passed INFO logger")
	}
}

func TestSplitter(t *testing.T) {
	tests := []struct {
		parts []string
		out   string
	}{
		{nil, "> \n"},
		{[]string{"x\n"}, "> x\n"},
		{[]string{"a", "b\nc"}, "> ab\n> c\n"},
		{[]string{"a\n\nb\n"}, "> a\n> \n> b\n"},
	}
	for _, tc := range tests {
		var out bytes.Buffer
		s := splitter{w: bufio.NewWriter(&out)}
		s.reset()
		s.p.WriteString("> ")
		for _, p := range tc.parts {
			if n, err := s.Write([]byte(p)); err != nil || n != len(p) {
				t.Fatalf("Write(%q) = %d, %v", p, n, err)
			}
		}
		s.finish()
		if out.String() != tc.out {
			t.Errorf("%q: got %q, want %q", tc.parts, out.String(), tc.out)
		}
	}
}
