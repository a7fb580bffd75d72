package psqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	"docdrop/lib/fpstore"
	. "docdrop/lib/logx"
	"docdrop/lib/psql"
	"docdrop/lib/utils/date"
	ht "docdrop/lib/utils/hashtools"
)

const currDbVersion = "1"

var _ fpstore.Store = (*PSQLStore)(nil)

// PSQLStore keeps fingerprints in docdrop.fingerprints.
// Database is shared; closing store doesn't close it.
type PSQLStore struct {
	db     *psql.PSQL
	set    *fpstore.Set
	log    Logger
	closed uint32
}

func (p *PSQLStore) InitDb() (err error) {
	stmts := [...]string{
		`CREATE SCHEMA IF NOT EXISTS docdrop`,
		`CREATE TABLE docdrop.capabilities (
	component TEXT NOT NULL PRIMARY KEY,
	version   TEXT NOT NULL
)`,
		`CREATE TABLE docdrop.fingerprints (
	fp_text  TEXT                     NOT NULL,
	fp_added TIMESTAMP WITH TIME ZONE NOT NULL,

	PRIMARY KEY (fp_text)
)`,
		`INSERT INTO docdrop.capabilities (component,version) VALUES ('fpstore','` + currDbVersion + `')`,
	}

	tx, err := p.db.DB.BeginTx(context.Background(), &sql.TxOptions{
		Isolation: sql.LevelSerializable,
		ReadOnly:  false,
	})
	if err != nil {
		return fmt.Errorf("err on BeginTx: %v", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i, s := range stmts {
		_, err = tx.Exec(s)
		if err != nil {
			err = fmt.Errorf("err on stmt %d: %v", i, err)
			return
		}
	}

	err = tx.Commit()
	if err != nil {
		err = fmt.Errorf("err on Commit: %v", err)
	}
	return
}

func (p *PSQLStore) CheckDb() (initialised bool, err error) {
	exists, err := p.db.HasTable("docdrop", "capabilities")
	if err != nil || !exists {
		return false, err
	}

	q := `SELECT version FROM docdrop.capabilities WHERE component = 'fpstore' LIMIT 1`
	var ver string
	err = p.db.DB.QueryRow(q).Scan(&ver)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, p.sqlError("version row query", err)
	}

	if ver != currDbVersion {
		return true, fmt.Errorf("incorrect fpstore schema version: %q (our: %q)", ver, currDbVersion)
	}

	return true, nil
}

func NewPSQLStore(db *psql.PSQL, l LoggerX) *PSQLStore {
	log := NewLogToX(l, fmt.Sprintf("fpstore/psqlstore.%p", db))
	return &PSQLStore{db: db, log: log, set: fpstore.NewSet(nil)}
}

func (p *PSQLStore) InitAndPrepare() (err error) {
	valid, err := p.CheckDb()
	if err != nil {
		return fmt.Errorf("error checking: %v", err)
	}
	if !valid {
		p.log.LogPrint(NOTICE,
			"uninitialized fpstore db, attempting to initialize")

		err = p.InitDb()
		if err != nil {
			return fmt.Errorf("error initializing: %v", err)
		}

		valid, err = p.CheckDb()
		if err != nil {
			return fmt.Errorf("error checking (2): %v", err)
		}
		if !valid {
			return errors.New("database still not valid after initialization")
		}
	}

	return
}

// NewInitAndPrepare initializes schema if needed and loads known
// fingerprints into memory.
func NewInitAndPrepare(db *psql.PSQL, l LoggerX) (p *PSQLStore, err error) {
	p = NewPSQLStore(db, l)

	err = p.InitAndPrepare()
	if err != nil {
		return nil, err
	}

	n, err := p.Load()
	if err != nil {
		return nil, err
	}
	p.log.LogPrintf(INFO, "loaded %d fingerprints", n)

	return
}

// Load rebuilds in-memory set from table. Unparseable rows are skipped.
func (p *PSQLStore) Load() (int, error) {
	q := `SELECT fp_text FROM docdrop.fingerprints`
	rows, err := p.db.DB.Query(q)
	if err != nil {
		return 0, p.sqlError("fingerprints query", err)
	}
	defer rows.Close()

	m := make(map[ht.Fingerprint]struct{})
	for rows.Next() {
		var s string
		err = rows.Scan(&s)
		if err != nil {
			return 0, p.sqlError("fingerprints query rows scan", err)
		}
		fp, e := ht.ParseFingerprint(s)
		if e != nil {
			p.log.LogPrintf(WARN, "row %q: %v, skipped", s, e)
			continue
		}
		m[fp] = struct{}{}
	}
	if err = rows.Err(); err != nil {
		return 0, p.sqlError("fingerprints query rows iteration", err)
	}

	p.set = fpstore.NewSet(m)
	return len(m), nil
}

func (p *PSQLStore) Contains(fp ht.Fingerprint) bool {
	return p.set.Has(fp)
}

func (p *PSQLStore) RecordIfAbsent(fp ht.Fingerprint) (wasNew bool, err error) {
	if !fp.Type.Valid() {
		return false, ht.ErrMalformedFingerprint
	}
	if atomic.LoadUint32(&p.closed) != 0 {
		return false, fpstore.ErrClosed
	}

	q := `INSERT INTO docdrop.fingerprints (fp_text,fp_added) VALUES ($1,$2) ON CONFLICT (fp_text) DO NOTHING RETURNING TRUE`
	var inserted bool
	err = p.db.DB.QueryRow(q, fp.String(), date.NowTimeUTC()).Scan(&inserted)
	if err != nil {
		if err == sql.ErrNoRows {
			// conflict - already exists, maybe inserted by other instance
			p.set.Add(fp)
			return false, nil
		}
		return false, p.sqlError("fingerprint insert queryrow scan", err)
	}
	if !inserted {
		// shouldn't happen
		return false, p.sqlError("bad inserted value", errors.New("false returned"))
	}

	p.set.Add(fp)
	return true, nil
}

func (p *PSQLStore) Record(fp ht.Fingerprint) error {
	return fpstore.Record(p, fp)
}

func (p *PSQLStore) Len() int {
	return p.set.Len()
}

func (p *PSQLStore) Close() error {
	atomic.StoreUint32(&p.closed, 1)
	return nil
}

func (p *PSQLStore) sqlError(when string, err error) error {
	return psql.SQLError(p.log, when, err)
}
