package export

import (
	"database/sql"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/notargets/gmshtranslate/utils"
)

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
	rule TEXT NOT NULL,
	tag  INTEGER NOT NULL,
	x    REAL NOT NULL,
	y    REAL NOT NULL,
	z    REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS elements (
	rule  TEXT NOT NULL,
	tag   INTEGER NOT NULL,
	type  INTEGER NOT NULL,
	grp   INTEGER NOT NULL,
	nodes TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS nodes_rule ON nodes(rule);
CREATE INDEX IF NOT EXISTS elements_rule ON elements(rule);
`

// SQLiteSink stores selected records in a SQLite database. The tables are
// emptied and refilled in a single transaction that Close commits, so a
// database always holds one complete translation.
type SQLiteSink struct {
	db       *sql.DB
	tx       *sql.Tx
	nodeStmt *sql.Stmt
	elemStmt *sql.Stmt
}

// NewSQLiteSink opens (creating if needed) the database at path
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	s := &SQLiteSink{db: db}
	if err = s.prepare(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteSink) prepare() (err error) {
	if _, err = s.db.Exec(schema); err != nil {
		return errors.Wrap(err, "create schema")
	}
	if s.tx, err = s.db.Begin(); err != nil {
		return errors.Wrap(err, "begin")
	}
	for _, table := range []string{"nodes", "elements"} {
		if _, err = s.tx.Exec("DELETE FROM " + table); err != nil {
			s.tx.Rollback()
			return errors.Wrapf(err, "clear %s", table)
		}
	}
	if s.nodeStmt, err = s.tx.Prepare(`INSERT INTO nodes(rule, tag, x, y, z) VALUES (?, ?, ?, ?, ?)`); err != nil {
		s.tx.Rollback()
		return errors.Wrap(err, "prepare nodes")
	}
	if s.elemStmt, err = s.tx.Prepare(`INSERT INTO elements(rule, tag, type, grp, nodes) VALUES (?, ?, ?, ?, ?)`); err != nil {
		s.tx.Rollback()
		return errors.Wrap(err, "prepare elements")
	}
	return nil
}

func (s *SQLiteSink) Node(rule string, tag int, x, y, z float64) error {
	_, err := s.nodeStmt.Exec(rule, tag, x, y, z)
	return err
}

// Element stores the connectivity as a space separated list
func (s *SQLiteSink) Element(rule string, tag int, etype utils.ElementType, group int, nodes []int) error {
	_, err := s.elemStmt.Exec(rule, tag, int(etype), group, joinInts(nodes, " "))
	return err
}

// Rollback discards everything written so far and closes the database
func (s *SQLiteSink) Rollback() error {
	err := s.tx.Rollback()
	if cerr := s.db.Close(); err == nil {
		err = cerr
	}
	return err
}

// Close commits and closes the database
func (s *SQLiteSink) Close() error {
	err := s.tx.Commit()
	if cerr := s.db.Close(); err == nil {
		err = cerr
	}
	return errors.Wrap(err, "sqlite")
}
