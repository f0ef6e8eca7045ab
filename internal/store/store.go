package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
	_ "modernc.org/sqlite"
)

// DefaultDirName is the data directory created under the project root.
const DefaultDirName = ".abilens"

// Store handles persistence of indexed data to SQLite.
type Store struct {
	db      *sql.DB
	dbPath  string
	baseDir string // Project root directory
}

// Open creates or opens an abilens index database at <projectDir>/<dirName>/index.db.
// An empty dirName means DefaultDirName.
func Open(projectDir, dirName string) (*Store, error) {
	if dirName == "" {
		dirName = DefaultDirName
	}
	dataDir := filepath.Join(projectDir, dirName)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating %s directory: %w", dirName, err)
	}

	dbPath := filepath.Join(dataDir, "index.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys and WAL mode
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -64000", // 64MB cache
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma: %w", err)
		}
	}

	// Create schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{
		db:      db,
		dbPath:  dbPath,
		baseDir: projectDir,
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DBPath returns the path to the database file.
func (s *Store) DBPath() string {
	return s.dbPath
}

// Clear removes all data from the database (for re-indexing).
// Tables are emptied children first so foreign keys hold throughout.
func (s *Store) Clear() error {
	tables := []string{"tags", "function_refs", "params", "functions", "type_refs", "members", "types", "impls", "contracts", "metadata"}
	for _, table := range tables {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clearing table %s: %w", table, err)
		}
	}
	return nil
}

// InsertTag inserts a tag on a type or function.
func (s *Store) InsertTag(tag *Tag) error {
	_, err := s.db.Exec(insertTagSQL, tag.Subject, tag.SubjectID, tag.Tag, tag.Reason)
	return err
}

// SetMetadata stores a key-value pair in the metadata table.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO metadata (key, value)
		VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// GetMetadata retrieves a value from the metadata table.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	return value, err
}

// Stats holds statistics about the indexed data.
type Stats struct {
	ContractCount int       `json:"contract_count"`
	FailedCount   int       `json:"failed_count"`
	TypeCount     int       `json:"type_count"`
	FunctionCount int       `json:"function_count"`
	EventCount    int       `json:"event_count"`
	TagCount      int       `json:"tag_count"`
	IndexedAt     time.Time `json:"indexed_at"`
	RunID         string    `json:"run_id,omitempty"`
}

// GetStats returns statistics about the indexed data.
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{}

	rows := []struct {
		label string
		query string
		dest  *int
	}{
		{"contracts", "SELECT COUNT(*) FROM contracts", &stats.ContractCount},
		{"failed contracts", "SELECT COUNT(*) FROM contracts WHERE parse_error IS NOT NULL", &stats.FailedCount},
		{"types", "SELECT COUNT(*) FROM types WHERE kind != 'event'", &stats.TypeCount},
		{"functions", "SELECT COUNT(*) FROM functions", &stats.FunctionCount},
		{"events", "SELECT COUNT(*) FROM types WHERE kind = 'event'", &stats.EventCount},
		{"tags", "SELECT COUNT(*) FROM tags", &stats.TagCount},
	}

	for _, r := range rows {
		if err := s.db.QueryRow(r.query).Scan(r.dest); err != nil {
			return nil, fmt.Errorf("counting %s: %w", r.label, err)
		}
	}

	// Get run metadata; a store that was never indexed has none
	if ts, err := s.GetMetadata("indexed_at"); err == nil {
		stats.IndexedAt, _ = time.Parse(time.RFC3339, ts)
	}
	stats.RunID, _ = s.GetMetadata("run_id")

	return stats, nil
}

// WriteIndexJSON writes index.json next to the database for quick UI boot.
func (s *Store) WriteIndexJSON() error {
	stats, err := s.GetStats()
	if err != nil {
		return fmt.Errorf("getting stats: %w", err)
	}

	contracts, err := s.GetContracts()
	if err != nil {
		return fmt.Errorf("querying contracts: %w", err)
	}

	// Build the document field by field
	doc := []byte(`{"version":"1"}`)
	fields := []struct {
		path  string
		value any
	}{
		{"project_path", s.baseDir},
		{"indexed_at", stats.IndexedAt.Format(time.RFC3339)},
		{"run_id", stats.RunID},
		{"contract_count", stats.ContractCount},
		{"failed_count", stats.FailedCount},
		{"type_count", stats.TypeCount},
		{"function_count", stats.FunctionCount},
		{"contracts", []string{}},
	}
	for _, f := range fields {
		if doc, err = sjson.SetBytes(doc, f.path, f.value); err != nil {
			return fmt.Errorf("building index.json: %w", err)
		}
	}
	// Append contract paths
	for _, c := range contracts {
		if doc, err = sjson.SetBytes(doc, "contracts.-1", c.Path); err != nil {
			return fmt.Errorf("building index.json: %w", err)
		}
	}

	indexPath := filepath.Join(filepath.Dir(s.dbPath), "index.json")
	if err := os.WriteFile(indexPath, pretty.Pretty(doc), 0644); err != nil {
		return fmt.Errorf("writing index.json: %w", err)
	}

	return nil
}

// Tx returns the underlying database for advanced queries.
// Use with caution - prefer adding methods to Store instead.
func (s *Store) Tx() *sql.DB {
	return s.db
}
