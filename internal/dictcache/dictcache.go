// Package dictcache caches parsed termlist rows in SQLite so that
// reloading a large dictionary skips the TSV parse. The cache is keyed
// by source path and content fingerprint; a changed file misses and is
// re-parsed.
package dictcache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/ontotag/ontotag/pkg/termsource"
)

// Store is the SQLite-backed row cache. Safe for concurrent use.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    fingerprint TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS terms (
    source_id INTEGER NOT NULL,
    ord INTEGER NOT NULL,
    term TEXT NOT NULL,
    concept_id TEXT NOT NULL,
    type TEXT,
    preferred_form TEXT,
    resource TEXT,
    extra TEXT,
    priority INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (source_id, ord)
);
`

// Open creates or opens a cache database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("dictcache: schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Fingerprint hashes a termlist file's content.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Load returns the cached rows for path, if the stored fingerprint still
// matches.
func (s *Store) Load(path, fingerprint string) ([]termsource.Row, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id int64
	var stored string
	err := s.db.QueryRow(`SELECT id, fingerprint FROM sources WHERE path = ?`, path).
		Scan(&id, &stored)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if stored != fingerprint {
		return nil, false, nil
	}

	rows, err := s.db.Query(`SELECT term, concept_id, type, preferred_form, resource, extra, priority
		FROM terms WHERE source_id = ? ORDER BY ord`, id)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var out []termsource.Row
	for rows.Next() {
		var r termsource.Row
		var extra string
		if err := rows.Scan(&r.Term, &r.ConceptID, &r.Type, &r.PreferredForm, &r.Resource, &extra, &r.Priority); err != nil {
			return nil, false, err
		}
		if extra != "" {
			if err := json.Unmarshal([]byte(extra), &r.Extra); err != nil {
				return nil, false, fmt.Errorf("dictcache: extra fields: %w", err)
			}
		}
		out = append(out, r)
	}
	return out, true, rows.Err()
}

// Save replaces the cached rows for path.
func (s *Store) Save(path, fingerprint string, rows []termsource.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM terms WHERE source_id IN
		(SELECT id FROM sources WHERE path = ?)`, path); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM sources WHERE path = ?`, path); err != nil {
		return err
	}
	res, err := tx.Exec(`INSERT INTO sources (path, fingerprint) VALUES (?, ?)`, path, fingerprint)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO terms
		(source_id, ord, term, concept_id, type, preferred_form, resource, extra, priority)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range rows {
		var extra string
		if len(r.Extra) > 0 {
			data, err := json.Marshal(r.Extra)
			if err != nil {
				return err
			}
			extra = string(data)
		}
		if _, err := stmt.Exec(id, i, r.Term, r.ConceptID, r.Type, r.PreferredForm, r.Resource, extra, r.Priority); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Source reads a termlist through the cache: a hit replays stored rows,
// a miss parses the TSV, stores the valid rows and reports the malformed
// ones as warnings. Cached replays carry no warnings; the rows were
// already screened on first parse.
func (s *Store) Source(path string, opts termsource.TSVOptions) (termsource.Source, []error, error) {
	fingerprint, err := Fingerprint(path)
	if err != nil {
		return nil, nil, err
	}
	if rows, ok, err := s.Load(path, fingerprint); err != nil {
		return nil, nil, err
	} else if ok {
		return &termsource.SliceSource{Rows: rows}, nil, nil
	}

	tsv, err := termsource.OpenTSV(path, opts)
	if err != nil {
		return nil, nil, err
	}
	defer tsv.Close()

	var rows []termsource.Row
	var warnings []error
	for {
		row, err := tsv.Next()
		if err == io.EOF {
			break
		}
		if rowErr, ok := err.(*termsource.RowError); ok {
			warnings = append(warnings, rowErr)
			continue
		}
		if err != nil {
			return nil, warnings, err
		}
		rows = append(rows, row)
	}
	if err := s.Save(path, fingerprint, rows); err != nil {
		return nil, warnings, err
	}
	return &termsource.SliceSource{Rows: rows}, warnings, nil
}
