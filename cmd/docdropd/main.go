package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docdrop/lib/app/appsetup"
	"docdrop/lib/app/config"
	"docdrop/lib/app/webupload"
	"docdrop/lib/challenge/chaltoken"
	"docdrop/lib/logx"
	"docdrop/lib/utils/date"
	"docdrop/lib/utils/ratelimit"
)

func main() {
	var err error
	// initialize flags
	cfgfile := flag.String("config", "", "TOML config file")
	httpbind := flag.String("httpbind", "", "http bind address, overrides config")
	loglevel := flag.String("loglevel", "", "log level, overrides config")

	flag.Parse()

	cfg := config.Default.Clone()
	var undecoded []string
	if *cfgfile != "" {
		cfg, undecoded, err = config.Load(*cfgfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	}
	if *httpbind != "" {
		cfg.HTTP.Bind = *httpbind
	}

	// logger
	lgr, err := appsetup.NewLogger(cfg.Log, *loglevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	mlg := logx.NewLogToX(lgr, "main")
	for _, k := range undecoded {
		mlg.LogPrintf(logx.WARN, "unknown config key %q ignored", k)
	}

	loc, err := date.LoadLocation(cfg.Challenge.Timezone)
	if err != nil {
		mlg.LogPrintln(logx.CRITICAL, "challenge timezone:", err)
		os.Exit(1)
	}

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

	up, err := appsetup.NewUploader(&cfg, st, lgr)
	if err != nil {
		fatal("uploader:", err)
	}

	var tokens *chaltoken.Issuer
	if cfg.Challenge.TokenKey != "" {
		tokens, err = chaltoken.NewIssuer(
			[]byte(cfg.Challenge.TokenKey), time.Duration(cfg.Challenge.TokenTTL))
		if err != nil {
			fatal("chaltoken.NewIssuer:", err)
		}
	} else {
		mlg.LogPrint(logx.NOTICE,
			"no challenge.token_key, answers are checked against current second only")
	}

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.UploadsPerMinute > 0 {
		limiter = ratelimit.NewLimiter(
			ratelimit.PerMinute(cfg.RateLimit.UploadsPerMinute), cfg.RateLimit.Burst)
	}
	stopc := make(chan struct{})
	defer close(stopc)
	if limiter != nil {
		go limiter.Run(10*time.Minute, stopc)
	}

	wu, err := webupload.New(webupload.Config{
		Uploader:       up,
		Tokens:         tokens,
		Location:       loc,
		AcceptAnyWord:  cfg.Challenge.AcceptAnyWord,
		MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
		Limiter:        limiter,
		Indent:         cfg.HTTP.JSONIndent,
		Logger:         lgr,
	})
	if err != nil {
		fatal("webupload.New:", err)
	}

	server := &http.Server{
		Addr:         cfg.HTTP.Bind,
		Handler:      wu.Handler(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout),
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout),
		IdleTimeout:  time.Duration(cfg.HTTP.IdleTimeout),
	}

	// graceful shutdown by signal
	killc := make(chan os.Signal, 2)
	shutdownDone := make(chan struct{})
	signal.Notify(killc, os.Interrupt, syscall.SIGTERM)
	go func(c chan os.Signal) {
		defer close(shutdownDone)
		for {
			s := <-c
			switch s {
			case os.Interrupt, syscall.SIGTERM:
				signal.Reset(os.Interrupt, syscall.SIGTERM)
				mlg.LogPrint(logx.NOTICE, "shutting down server")
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				server.Shutdown(ctx)
				cancel()
				return
			}
		}
	}(killc)

	mlg.LogPrintf(logx.INFO, "listening on %s, storing into %s", cfg.HTTP.Bind, up.Dir())
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		fatal("error from ListenAndServe:", err)
	}
	// in-flight uploads finish before store is closed
	<-shutdownDone
}
