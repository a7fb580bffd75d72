// Package appsetup builds runtime components from config.
package appsetup

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/lib/pq"
	"github.com/luna-duclos/instrumentedsql"

	"docdrop/lib/app/config"
	"docdrop/lib/app/uploader"
	fl "docdrop/lib/filelogger"
	"docdrop/lib/fpstore"
	"docdrop/lib/fpstore/psqlstore"
	. "docdrop/lib/logx"
	"docdrop/lib/psql"
	ht "docdrop/lib/utils/hashtools"
)

// NewLogger makes stderr logger; lvl overrides config level unless empty.
func NewLogger(c config.LogCfg, lvl string) (*fl.FileLogger, error) {
	if lvl == "" {
		lvl = c.Level
	}
	l, err := ParseLevel(lvl)
	if err != nil {
		return nil, err
	}
	col, err := fl.ParseColor(c.Color)
	if err != nil {
		return nil, err
	}
	return fl.NewFileLogger(os.Stderr, l, col)
}

const tracedDriver = "instrumented-postgres"

var registerOnce sync.Once

func registerTraced(lgr LoggerX) {
	registerOnce.Do(func() {
		slg := NewLogToX(lgr, "sql")
		logger := instrumentedsql.LoggerFunc(
			func(ctx context.Context, msg string, keyvals ...interface{}) {
				slg.LogPrintf(DEBUG, "SQL: %s %v", msg, keyvals)
			})
		sql.Register(tracedDriver,
			instrumentedsql.WrapDriver(&pq.Driver{},
				instrumentedsql.WithLogger(logger),
				instrumentedsql.WithOpsExcluded(instrumentedsql.OpSQLRowsNext)))
	})
}

// OpenPSQL connects using psql section; with trace every statement is logged.
func OpenPSQL(c config.PSQLCfg, lgr LoggerX) (psql.PSQL, error) {
	sqlconf := psql.DefaultConfig
	sqlconf.Logger = lgr
	sqlconf.ConnStr = c.ConnStr
	sqlconf.ConnMaxLifetime = c.ConnMaxLifetime
	sqlconf.MaxIdleConns = c.MaxIdleConns
	sqlconf.MaxOpenConns = c.MaxOpenConns
	if c.Trace {
		registerTraced(lgr)
		sqlconf.ConnDriver = tracedDriver
	}

	db, err := psql.OpenPSQL(sqlconf)
	if err != nil {
		return psql.PSQL{}, err
	}
	if err = db.CheckCharset(); err != nil {
		db.Close()
		return psql.PSQL{}, err
	}
	return db, nil
}

// Store is opened fingerprint store with whatever it holds.
type Store struct {
	fpstore.Store
	db *psql.PSQL
}

func (s *Store) Close() error {
	err := s.Store.Close()
	if s.db != nil {
		if e := s.db.Close(); err == nil {
			err = e
		}
	}
	return err
}

// OpenStore opens backend selected by storage.backend.
func OpenStore(c *config.Config, lgr LoggerX) (*Store, error) {
	switch c.Storage.Backend {
	case config.BackendPSQL:
		db, err := OpenPSQL(c.PSQL, lgr)
		if err != nil {
			return nil, fmt.Errorf("psql open: %w", err)
		}
		ps, err := psqlstore.NewInitAndPrepare(&db, lgr)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("psqlstore: %w", err)
		}
		return &Store{Store: ps, db: &db}, nil

	default:
		if err := os.MkdirAll(c.Storage.StateDir, 0755); err != nil {
			return nil, fmt.Errorf("state dir: %w", err)
		}
		fs, err := fpstore.OpenFileStore(fpstore.FileConfig{
			Path:   c.HashLogPath(),
			NoSync: !c.Storage.Sync,
			Logger: lgr,
		})
		if err != nil {
			return nil, err
		}
		return &Store{Store: fs}, nil
	}
}

// NewUploader wires uploader to st according to storage and names sections.
func NewUploader(c *config.Config, st fpstore.Store, lgr LoggerX) (*uploader.Uploader, error) {
	htype, err := ht.ParseHashType(c.Storage.Hash)
	if err != nil {
		return nil, err
	}
	return uploader.New(uploader.Config{
		UploadDir:  c.Storage.UploadDir,
		StateDir:   c.Storage.StateDir,
		HashType:   htype,
		Store:      st,
		Normalizer: c.Normalizer(),
		Ignore:     c.Storage.Ignore,
		NoSync:     !c.Storage.Sync,
		Logger:     lgr,
	})
}
