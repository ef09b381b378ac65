package fcidump

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// DiskInts is a two-electron integral table backed by sqlite, for
// systems whose V8Int does not fit in the arena. Zero integrals are
// not stored. It carries the same 8-fold symmetry as V8Int.
type DiskInts struct {
	N  int
	db *sql.DB
}

// NewDiskInts creates the integral table at dbPath, destroying any
// previous table at that path.
func NewDiskInts(dbPath string, n int) (*DiskInts, error) {
	db, err := sql.Open("sqlite3", "file:"+dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	d := &DiskInts{N: n, db: db}
	if err := d.prepareDB(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return d, nil
}

func (d *DiskInts) prepareDB() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := d.db.ExecContext(ctx, `DROP TABLE IF EXISTS v`); err != nil {
		return errors.Wrap(err, "")
	}
	sqlStr := `CREATE TABLE v (idx INTEGER PRIMARY KEY, val REAL NOT NULL) STRICT`
	if _, err := d.db.ExecContext(ctx, sqlStr); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func (d *DiskInts) findIndex(i, j, k, l int) int {
	return pairIndex(pairIndex(i, j), pairIndex(k, l))
}

// Set writes the integral (ij|kl) and its symmetry images.
func (d *DiskInts) Set(i, j, k, l int, v float64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	idx := d.findIndex(i, j, k, l)
	var err error
	if v == 0 {
		_, err = d.db.ExecContext(ctx, `DELETE FROM v WHERE idx=?`, idx)
	} else {
		_, err = d.db.ExecContext(ctx, `INSERT OR REPLACE INTO v (idx, val) VALUES (?, ?)`, idx, v)
	}
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("%d %d %d %d", i, j, k, l))
	}
	return nil
}

// At reads the integral (ij|kl). Absent entries are zero.
func (d *DiskInts) At(i, j, k, l int) (float64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	var v float64
	err := d.db.QueryRowContext(ctx, `SELECT val FROM v WHERE idx=?`, d.findIndex(i, j, k, l)).Scan(&v)
	switch {
	case err == sql.ErrNoRows:
		return 0, nil
	case err != nil:
		return 0, errors.Wrap(err, fmt.Sprintf("%d %d %d %d", i, j, k, l))
	}
	return v, nil
}

// Load copies an in-arena table to disk.
func (d *DiskInts) Load(v V8Int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 48*time.Hour)
	defer cancel()
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO v (idx, val) VALUES (?, ?)`)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer stmt.Close()
	for idx, x := range v.Data {
		if x == 0 {
			continue
		}
		if _, err := stmt.ExecContext(ctx, idx, x); err != nil {
			return errors.Wrap(err, fmt.Sprintf("%d", idx))
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func (d *DiskInts) Close() error {
	if err := d.db.Close(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}
