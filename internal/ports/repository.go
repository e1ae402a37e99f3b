package ports

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ngmaloney/rotation-map/internal/models"
)

// Repository handles persistence for ports and their aliases
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new port repository over an open database
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// SavePort inserts or updates a port by normalized name and adds its aliases
func (r *Repository) SavePort(ctx context.Context, port *models.Port) error {
	if port.CreatedAt.IsZero() {
		port.CreatedAt = time.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO ports (name, normalized_name, code, latitude, longitude, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(normalized_name) DO UPDATE SET
			name = excluded.name,
			code = excluded.code,
			latitude = excluded.latitude,
			longitude = excluded.longitude
		RETURNING id
	`
	err = tx.QueryRowContext(ctx, query,
		port.Name,
		NormalizeName(port.Name),
		nullString(port.Code),
		port.Latitude,
		port.Longitude,
		port.CreatedAt,
	).Scan(&port.ID)
	if err != nil {
		return fmt.Errorf("saving port: %w", err)
	}

	for _, alias := range port.Aliases {
		if err := insertAlias(ctx, tx, port.ID, alias); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing port: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertAlias(ctx context.Context, db execer, portID int64, alias string) error {
	norm := NormalizeName(alias)
	if norm == "" {
		return nil
	}
	_, err := db.ExecContext(ctx,
		"INSERT OR IGNORE INTO port_aliases (port_id, alias, normalized_alias) VALUES (?, ?, ?)",
		portID, alias, norm,
	)
	if err != nil {
		return fmt.Errorf("saving alias %q: %w", alias, err)
	}
	return nil
}

// AddAlias records another name for an existing port
func (r *Repository) AddAlias(ctx context.Context, portName, alias string) error {
	port, err := r.GetPort(ctx, portName)
	if err != nil {
		return err
	}
	return insertAlias(ctx, r.db, port.ID, alias)
}

const portColumns = "p.id, p.name, p.code, p.latitude, p.longitude, p.created_at"

// GetPort looks a port up by name, then by alias
func (r *Repository) GetPort(ctx context.Context, name string) (*models.Port, error) {
	norm := NormalizeName(name)

	p, err := r.scanPort(r.db.QueryRowContext(ctx,
		"SELECT "+portColumns+" FROM ports p WHERE p.normalized_name = ?", norm))
	if errors.Is(err, ErrNotFound) {
		p, err = r.scanPort(r.db.QueryRowContext(ctx,
			"SELECT "+portColumns+" FROM port_aliases a JOIN ports p ON p.id = a.port_id WHERE a.normalized_alias = ? ORDER BY p.id LIMIT 1", norm))
	}
	if err != nil {
		return nil, err
	}

	aliases, err := r.aliases(ctx)
	if err != nil {
		return nil, err
	}
	p.Aliases = aliases[p.ID]
	return p, nil
}

func (r *Repository) scanPort(row *sql.Row) (*models.Port, error) {
	var p models.Port
	var code sql.NullString
	err := row.Scan(&p.ID, &p.Name, &code, &p.Latitude, &p.Longitude, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying port: %w", err)
	}
	p.Code = code.String
	return &p, nil
}

// Resolve implements Directory. Exact names win over aliases.
func (r *Repository) Resolve(ctx context.Context, rawName string) (models.Coordinate, bool, error) {
	if NormalizeName(rawName) == "" {
		return models.Coordinate{}, false, nil
	}
	p, err := r.GetPort(ctx, rawName)
	if errors.Is(err, ErrNotFound) {
		return models.Coordinate{}, false, nil
	}
	if err != nil {
		return models.Coordinate{}, false, err
	}
	return p.Coordinate(), true, nil
}

// ListPorts retrieves all ports ordered by name
func (r *Repository) ListPorts(ctx context.Context) ([]models.Port, error) {
	aliases, err := r.aliases(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, "SELECT "+portColumns+" FROM ports p ORDER BY p.name")
	if err != nil {
		return nil, fmt.Errorf("querying ports: %w", err)
	}
	defer rows.Close()

	var ports []models.Port
	for rows.Next() {
		var p models.Port
		var code sql.NullString

		if err := rows.Scan(&p.ID, &p.Name, &code, &p.Latitude, &p.Longitude, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning port: %w", err)
		}
		p.Code = code.String
		p.Aliases = aliases[p.ID]
		ports = append(ports, p)
	}

	return ports, rows.Err()
}

func (r *Repository) aliases(ctx context.Context) (map[int64][]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT port_id, alias FROM port_aliases ORDER BY port_id, alias")
	if err != nil {
		return nil, fmt.Errorf("querying aliases: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]string)
	for rows.Next() {
		var id int64
		var alias string
		if err := rows.Scan(&id, &alias); err != nil {
			return nil, fmt.Errorf("scanning alias: %w", err)
		}
		out[id] = append(out[id], alias)
	}
	return out, rows.Err()
}

// DeletePort removes a port and its aliases by name
func (r *Repository) DeletePort(ctx context.Context, name string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	norm := NormalizeName(name)
	_, err = tx.ExecContext(ctx,
		"DELETE FROM port_aliases WHERE port_id IN (SELECT id FROM ports WHERE normalized_name = ?)", norm)
	if err != nil {
		return fmt.Errorf("deleting aliases: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM ports WHERE normalized_name = ?", norm)
	if err != nil {
		return fmt.Errorf("deleting port: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
