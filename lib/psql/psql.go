package psql

// PSQL connector shared by stores which keep their state in postgresql

import (
	"fmt"
	"strings"
	"time"

	. "docdrop/lib/logx"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Config struct {
	ConnStr         string
	ConnDriver      string // "postgres" if empty; set to wrapped driver for tracing
	ConnMaxLifetime float64
	MaxIdleConns    int32
	MaxOpenConns    int32
	Logger          LoggerX
}

var DefaultConfig = Config{
	ConnStr:         "",
	ConnDriver:      "postgres",
	ConnMaxLifetime: 0.0,
	MaxIdleConns:    0,
	MaxOpenConns:    0,
}

type PSQL struct {
	DB *sqlx.DB

	log Logger
	id  string
}

func OpenPSQL(cfg Config) (PSQL, error) {
	drv := cfg.ConnDriver
	if drv == "" {
		drv = "postgres"
	}
	db, err := sqlx.Open(drv, cfg.ConnStr)
	if err != nil {
		return PSQL{}, err
	}

	if cfg.ConnMaxLifetime > 0.0 {
		db.SetConnMaxLifetime(
			time.Duration(float64(time.Second) *
				cfg.ConnMaxLifetime))
	}

	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(int(cfg.MaxIdleConns))
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(int(cfg.MaxOpenConns))
	}

	err = db.Ping()
	if err != nil {
		db.Close()
		return PSQL{}, err
	}

	p := PSQL{DB: db}
	p.id = fmt.Sprintf("psql.%p", p.DB)
	p.log = NewLogToX(cfg.Logger, p.id)

	return p, nil
}

func (p PSQL) Close() error {
	return p.DB.Close()
}

func (p PSQL) ID() string {
	return p.id
}

// CheckCharset fails unless database encoding is UTF8.
func (p PSQL) CheckCharset() error {
	var charset string
	err := p.DB.
		QueryRow(`SELECT pg_encoding_to_char(encoding) FROM pg_database WHERE datname = current_database()`).
		Scan(&charset)
	if err != nil {
		return p.sqlError("charset query", err)
	}
	if !strings.EqualFold(charset, "UTF8") {
		return fmt.Errorf(
			"bad database charset: expected \"UTF8\" got %q", charset)
	}
	return nil
}

// HasTable reports whether schema.table exists.
func (p PSQL) HasTable(schema, table string) (bool, error) {
	var exists bool
	err := p.DB.
		QueryRow(`SELECT EXISTS (SELECT 1 FROM pg_tables WHERE schemaname = $1 AND tablename = $2)`, schema, table).
		Scan(&exists)
	if err != nil {
		return false, p.sqlError("pg_tables query", err)
	}
	return exists, nil
}
