package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"docdrop/lib/app/appsetup"
	"docdrop/lib/app/config"
	"docdrop/lib/app/uploader"
	"docdrop/lib/fpstore"
	"docdrop/lib/logx"
	ht "docdrop/lib/utils/hashtools"
)

func printUsage(f io.Writer) {
	fmt.Fprintf(f,
		"Usage: %s [-config file] [-dir uploads] [-n]\n"+
			"Records fingerprints of files already in upload directory.\n",
		os.Args[0])
	flag.PrintDefaults()
}

type stats struct {
	files, added, known, failed int
}

// processFile records fingerprint of named file unless known.
// Non-nil dry makes it record into dry only.
func processFile(
	st fpstore.Store, htype ht.HashType, name string,
	dry map[ht.Fingerprint]struct{}, lg logx.Logger) (added bool, err error) {

	f, err := os.Open(name)
	if err != nil {
		return
	}
	defer f.Close()

	fp, err := ht.HashReader(f, htype)
	if err != nil {
		return
	}
	if st.Contains(fp) {
		lg.LogPrintf(logx.DEBUG, "%q: %s known", name, fp)
		return false, nil
	}
	if dry != nil {
		if _, seen := dry[fp]; seen {
			lg.LogPrintf(logx.DEBUG, "%q: %s repeated", name, fp)
			return false, nil
		}
		dry[fp] = struct{}{}
		fmt.Printf("%s %q\n", fp, name)
		return true, nil
	}
	added, err = st.RecordIfAbsent(fp)
	if added {
		fmt.Printf("%s %q\n", fp, name)
	}
	return
}

func main() {
	var err error
	cfgfile := flag.String("config", "", "TOML config file")
	dir := flag.String("dir", "", "upload directory, overrides config")
	dry := flag.Bool("n", false, "dry run, only print what would be recorded")
	loglevel := flag.String("loglevel", "", "log level, overrides config")
	flag.Usage = func() { printUsage(os.Stderr) }

	flag.Parse()
	if flag.NArg() != 0 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	cfg := config.Default.Clone()
	if *cfgfile != "" {
		cfg, _, err = config.Load(*cfgfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	}
	if *dir != "" {
		cfg.Storage.UploadDir = *dir
	}

	lgr, err := appsetup.NewLogger(cfg.Log, *loglevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	mlg := logx.NewLogToX(lgr, "reindex")

	st, err := appsetup.OpenStore(&cfg, lgr)
	if err != nil {
		mlg.LogPrintln(logx.CRITICAL, "fingerprint store:", err)
		os.Exit(1)
	}
	defer st.Close()
	// deferred calls don't run on os.Exit
	fatal := func(v ...interface{}) {
		mlg.LogPrintln(logx.CRITICAL, v...)
		st.Close()
		os.Exit(1)
	}

	htype, err := ht.ParseHashType(cfg.Storage.Hash)
	if err != nil {
		fatal(err)
	}

	// same names the server lists; staging dir is left alone
	// so running server isn't disturbed
	lister, err := uploader.NewLister(cfg.Storage.UploadDir, cfg.Storage.Ignore)
	if err != nil {
		fatal(err)
	}
	names, err := lister.List()
	if err != nil {
		fatal(err)
	}

	var drySeen map[ht.Fingerprint]struct{}
	if *dry {
		drySeen = make(map[ht.Fingerprint]struct{})
	}

	var s stats
	for _, n := range names {
		s.files++
		added, e := processFile(st, htype, filepath.Join(lister.Dir(), n), drySeen, mlg)
		switch {
		case e != nil:
			s.failed++
			mlg.LogPrintf(logx.ERROR, "%q: %v", n, e)
		case added:
			s.added++
		default:
			s.known++
		}
	}

	mlg.LogPrintf(logx.NOTICE, "%d files: %d added, %d already known, %d failed",
		s.files, s.added, s.known, s.failed)
	if s.failed != 0 {
		st.Close()
		os.Exit(1)
	}
}
