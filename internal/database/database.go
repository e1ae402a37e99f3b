package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DBPath returns the path to the single shared database
func DBPath() string {
	return filepath.Join("data", "rotation-map.db")
}

const schema = `
	CREATE TABLE IF NOT EXISTS ports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		normalized_name TEXT NOT NULL,
		code TEXT,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_ports_normalized_name ON ports(normalized_name);

	CREATE TABLE IF NOT EXISTS port_aliases (
		port_id INTEGER NOT NULL REFERENCES ports(id) ON DELETE CASCADE,
		alias TEXT NOT NULL,
		normalized_alias TEXT NOT NULL,
		PRIMARY KEY (port_id, normalized_alias)
	);
	CREATE INDEX IF NOT EXISTS idx_port_aliases_alias ON port_aliases(normalized_alias);

	CREATE TABLE IF NOT EXISTS services (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_services_name ON services(name);

	CREATE TABLE IF NOT EXISTS rotations (
		service_id INTEGER NOT NULL REFERENCES services(id) ON DELETE CASCADE,
		call_order INTEGER NOT NULL,
		port_name TEXT NOT NULL,
		direction TEXT,
		terminal TEXT,
		PRIMARY KEY (service_id, call_order)
	);

	CREATE TABLE IF NOT EXISTS land_masks (
		source TEXT NOT NULL,
		resolution REAL NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		cells BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (source, resolution)
	);
`

// ApplySchema creates any missing tables on an open connection
func ApplySchema(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

// EnsureSchema ensures every table exists in the database file at dbPath.
// Existing data is never dropped.
func EnsureSchema(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening database to ensure schema: %w", err)
	}
	defer db.Close()

	return ApplySchema(db)
}

// Open opens (creating if needed) the database at dbPath with the schema applied
func Open(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite serializes writers; one connection keeps PRAGMAs consistent.
	db.SetMaxOpenConns(1)

	if err := ApplySchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// OpenMemory opens a private in-memory database with the schema applied
func OpenMemory() (*sql.DB, error) {
	return Open(":memory:")
}
