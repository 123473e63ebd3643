// Package db is the persistent documentation index behind the add, search,
// doc, and mcp commands. Rows are flattened render output, never live
// document-tree entities.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"
)

type DB struct {
	conn *sql.DB
}

func New(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	conn, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	queries := []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_package_id START 1;`,
		`CREATE SEQUENCE IF NOT EXISTS seq_entity_id START 1;`,

		`CREATE TABLE IF NOT EXISTS packages (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			python TEXT NOT NULL,
			indexed_at TIMESTAMP,
			last_used_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS entities (
			id INTEGER PRIMARY KEY,
			package_id INTEGER REFERENCES packages(id),
			qualname TEXT NOT NULL,
			module TEXT NOT NULL,
			kind TEXT NOT NULL,
			signature TEXT,
			summary TEXT,
			doc TEXT,
			url_path TEXT,
			UNIQUE(package_id, qualname)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entities_package ON entities (package_id)`,
		`CREATE INDEX IF NOT EXISTS idx_entities_qualname ON entities (qualname)`,
		`CREATE INDEX IF NOT EXISTS idx_entities_module ON entities (module)`,
	}

	for _, q := range queries {
		if _, err := db.conn.Exec(q); err != nil {
			return fmt.Errorf("executing %q: %w", q, err)
		}
	}
	return nil
}

// --- Package operations ---

type Package struct {
	ID         int
	Name       string
	Python     string
	IndexedAt  *time.Time
	LastUsedAt time.Time
}

// PackageInfo is a Package plus its entity count, for listings.
type PackageInfo struct {
	Package
	Entities int
}

func (db *DB) UpsertPackage(name, python string) (*Package, error) {
	var p Package
	err := db.conn.QueryRow(
		`SELECT id, name, python, indexed_at, last_used_at FROM packages WHERE name = ?`, name,
	).Scan(&p.ID, &p.Name, &p.Python, &p.IndexedAt, &p.LastUsedAt)

	if err == nil {
		if p.Python != python {
			if _, err := db.conn.Exec(`UPDATE packages SET python = ? WHERE id = ?`, python, p.ID); err != nil {
				return nil, fmt.Errorf("updating package: %w", err)
			}
			p.Python = python
		}
		return &p, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("checking package: %w", err)
	}

	_, err = db.conn.Exec(
		`INSERT INTO packages (id, name, python) VALUES (nextval('seq_package_id'), ?, ?)`,
		name, python,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting package: %w", err)
	}

	var id int
	if err := db.conn.QueryRow("SELECT currval('seq_package_id')").Scan(&id); err != nil {
		return nil, fmt.Errorf("getting package id: %w", err)
	}

	return &Package{ID: id, Name: name, Python: python, LastUsedAt: time.Now()}, nil
}

func (db *DB) MarkPackageIndexed(packageID int) error {
	_, err := db.conn.Exec(`UPDATE packages SET indexed_at = CURRENT_TIMESTAMP WHERE id = ?`, packageID)
	return err
}

func (db *DB) TouchPackage(packageID int) error {
	_, err := db.conn.Exec(`UPDATE packages SET last_used_at = CURRENT_TIMESTAMP WHERE id = ?`, packageID)
	return err
}

func (db *DB) GetPackage(name string) (*Package, error) {
	var p Package
	err := db.conn.QueryRow(
		`SELECT id, name, python, indexed_at, last_used_at FROM packages WHERE name = ?`, name,
	).Scan(&p.ID, &p.Name, &p.Python, &p.IndexedAt, &p.LastUsedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (db *DB) ListPackages() ([]PackageInfo, error) {
	rows, err := db.conn.Query(`
		SELECT p.id, p.name, p.python, p.indexed_at, p.last_used_at, COUNT(e.id)
		FROM packages p LEFT JOIN entities e ON e.package_id = p.id
		GROUP BY p.id, p.name, p.python, p.indexed_at, p.last_used_at
		ORDER BY p.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var packages []PackageInfo
	for rows.Next() {
		var p PackageInfo
		if err := rows.Scan(&p.ID, &p.Name, &p.Python, &p.IndexedAt, &p.LastUsedAt, &p.Entities); err != nil {
			return nil, err
		}
		packages = append(packages, p)
	}
	return packages, nil
}

// --- Entity operations ---

type Entity struct {
	ID        int
	PackageID int
	Qualname  string
	Module    string
	Kind      string
	Signature string
	Summary   string
	Doc       string
	URLPath   string
}

func (db *DB) InsertEntity(e *Entity) error {
	_, err := db.conn.Exec(
		`INSERT INTO entities (id, package_id, qualname, module, kind, signature, summary, doc, url_path)
		 VALUES (nextval('seq_entity_id'), ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.PackageID, e.Qualname, e.Module, e.Kind, e.Signature, e.Summary, e.Doc, e.URLPath,
	)
	if err != nil {
		return fmt.Errorf("inserting entity: %w", err)
	}

	return db.conn.QueryRow(
		`SELECT id FROM entities WHERE package_id = ? AND qualname = ?`,
		e.PackageID, e.Qualname,
	).Scan(&e.ID)
}

func (db *DB) DeleteEntitiesByPackage(packageID int) error {
	_, err := db.conn.Exec(`DELETE FROM entities WHERE package_id = ?`, packageID)
	return err
}

func (db *DB) CountEntities(packageID int) (int, error) {
	var count int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM entities WHERE package_id = ?`, packageID).Scan(&count)
	return count, err
}

// GetEntityByQualname looks an entity up by its exact qualified name across
// all packages. When two packages claim the same qualname, the most
// recently used package wins.
func (db *DB) GetEntityByQualname(qualname string) (*Entity, error) {
	var e Entity
	err := db.conn.QueryRow(
		`SELECT e.id, e.package_id, e.qualname, e.module, e.kind, e.signature, e.summary, e.doc, e.url_path
		 FROM entities e JOIN packages p ON p.id = e.package_id
		 WHERE e.qualname = ?
		 ORDER BY p.last_used_at DESC LIMIT 1`,
		qualname,
	).Scan(&e.ID, &e.PackageID, &e.Qualname, &e.Module, &e.Kind, &e.Signature, &e.Summary, &e.Doc, &e.URLPath)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// --- Search ---

type SearchResult struct {
	Entity
	Package string
}

// SearchEntities ranks substring matches: exact qualname, then exact simple
// name, then qualname substring, then summary, then full docstring. Shorter
// qualnames break ties so top-level names surface first.
func (db *DB) SearchEntities(query string, packages []string, limit int) ([]SearchResult, error) {
	q := strings.ToLower(query)
	sub := "%" + q + "%"
	baseSuffix := "%." + q

	var packageFilter string
	params := []interface{}{q, baseSuffix, sub, sub, sub, sub, sub}
	if len(packages) > 0 {
		placeholders := make([]string, len(packages))
		for i, name := range packages {
			placeholders[i] = "?"
			params = append(params, name)
		}
		packageFilter = fmt.Sprintf(` AND p.name IN (%s)`, strings.Join(placeholders, ","))
	}
	params = append(params, limit)

	rows, err := db.conn.Query(fmt.Sprintf(`
		SELECT e.id, e.package_id, e.qualname, e.module, e.kind, e.signature, e.summary, e.doc, e.url_path, p.name,
		       CASE
		           WHEN lower(e.qualname) = ? THEN 0
		           WHEN lower(e.qualname) LIKE ? THEN 1
		           WHEN lower(e.qualname) LIKE ? THEN 2
		           WHEN lower(e.summary) LIKE ? THEN 3
		           ELSE 4
		       END AS score
		FROM entities e JOIN packages p ON p.id = e.package_id
		WHERE (lower(e.qualname) LIKE ? OR lower(e.summary) LIKE ? OR lower(e.doc) LIKE ?)%s
		ORDER BY score, length(e.qualname), e.qualname
		LIMIT ?`, packageFilter), params...)
	if err != nil {
		return nil, fmt.Errorf("searching entities: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var score int
		if err := rows.Scan(&r.ID, &r.PackageID, &r.Qualname, &r.Module, &r.Kind, &r.Signature, &r.Summary, &r.Doc, &r.URLPath, &r.Package, &score); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		results = append(results, r)
	}
	return results, nil
}
