package namenorm

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw      string
		existing []string
		exp      string
	}{
		{"My_File_freemagazines_top_junk.pdf", nil, "My File.pdf"},
		{"a.pdf", []string{"a.pdf"}, "a (1).pdf"},
		{"a.pdf", []string{"a.pdf", "a (1).pdf"}, "a (2).pdf"},
		{"Mag_freemagazines_top", nil, "Mag.pdf"},
		{"Mag.pdf_freemagazines_top_x", nil, "Mag.pdf"},
		{"x_freemagazines_top_y_freemagazines_top.pdf", nil, "x.pdf"},
		{"plain_name.epub", nil, "plain name.epub"},
		{"noext", []string{"noext"}, "noext (1)"},
		{".hidden", []string{".hidden"}, ".hidden (1)"},
		{"a.tar.gz", []string{"a.tar.gz"}, "a.tar (1).gz"},
		{"../../etc/passwd", nil, "passwd"},
		{`C:\Users\x\doc_1.pdf`, nil, "doc 1.pdf"},
		{"", nil, "unnamed.pdf"},
		{"..", nil, "unnamed.pdf"},
		{"_freemagazines_top.pdf", nil, "unnamed.pdf"},
		{"dir/", nil, "unnamed.pdf"},
		{"tab\tname.pdf", nil, "tabname.pdf"},
		{"cafe\u0301.pdf", nil, "caf\u00e9.pdf"},
	}
	for _, tc := range tests {
		got := Normalize(tc.raw, NewNameSet(tc.existing...))
		if got != tc.exp {
			t.Errorf("Normalize(%q, %q) = %q, want %q", tc.raw, tc.existing, got, tc.exp)
		}
	}
}

func TestNormalizeResultUnique(t *testing.T) {
	set := NewNameSet()
	for i := 0; i < 20; i++ {
		n := Normalize("Same_Name_freemagazines_top.pdf", set)
		if set.Has(n) {
			t.Fatalf("iteration %d: %q already taken", i, n)
		}
		set.Add(n)
	}
	if !set.Has("Same Name (19).pdf") {
		t.Errorf("expected sequential disambiguators, have %v", set)
	}
}

func TestCustomNormalizer(t *testing.T) {
	n := Normalizer{Marker: "--cut", DefaultExt: ".epub"}
	if got := n.Normalize("Book_one--cut-rest", nil); got != "Book one.epub" {
		t.Errorf("got %q", got)
	}
	n = Normalizer{}
	if got := n.Normalize("keep_freemagazines_top", nil); got != "keep freemagazines top" {
		t.Errorf("empty marker should disable cutting, got %q", got)
	}
}

func TestSplitExt(t *testing.T) {
	tests := []struct{ in, base, ext string }{
		{"a.pdf", "a", ".pdf"},
		{"a", "a", ""},
		{".profile", ".profile", ""},
		{"..a", "..a", ""},
		{"a.", "a", "."},
		{"a.b.c", "a.b", ".c"},
		{"..a.b", "..a", ".b"},
	}
	for _, tc := range tests {
		b, e := SplitExt(tc.in)
		if b != tc.base || e != tc.ext {
			t.Errorf("SplitExt(%q) = %q, %q; want %q, %q", tc.in, b, e, tc.base, tc.ext)
		}
	}
}
