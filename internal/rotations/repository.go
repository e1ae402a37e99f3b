package rotations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ngmaloney/rotation-map/internal/models"
)

// ErrServiceNotFound is returned when a service does not exist
var ErrServiceNotFound = errors.New("service not found")

// Repository handles persistence for services and their rotations
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new rotation repository over an open database
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// SaveService inserts or updates a service by name and replaces its calls
func (r *Repository) SaveService(ctx context.Context, svc *models.Service) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO services (name, description) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET description = excluded.description
		RETURNING id
	`, svc.Name, svc.Description).Scan(&svc.ID)
	if err != nil {
		return fmt.Errorf("saving service: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM rotations WHERE service_id = ?", svc.ID); err != nil {
		return fmt.Errorf("clearing rotation: %w", err)
	}

	for i := range svc.Calls {
		call := &svc.Calls[i]
		call.Order = i + 1
		_, err := tx.ExecContext(ctx,
			"INSERT INTO rotations (service_id, call_order, port_name, direction, terminal) VALUES (?, ?, ?, ?, ?)",
			svc.ID, call.Order, call.PortName, call.Direction, call.Terminal,
		)
		if err != nil {
			return fmt.Errorf("saving call %d: %w", call.Order, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing service: %w", err)
	}
	return nil
}

// ListServices returns every service with its calls, ordered by name
func (r *Repository) ListServices(ctx context.Context) ([]models.Service, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, description FROM services ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying services: %w", err)
	}

	var services []models.Service
	for rows.Next() {
		var s models.Service
		var desc sql.NullString
		if err := rows.Scan(&s.ID, &s.Name, &desc); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning service: %w", err)
		}
		s.Description = desc.String
		services = append(services, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Calls are loaded after the service cursor closes; the pool may have one connection.
	for i := range services {
		calls, err := r.calls(ctx, services[i].ID)
		if err != nil {
			return nil, err
		}
		services[i].Calls = calls
	}
	return services, nil
}

// GetService returns a service by ID
func (r *Repository) GetService(ctx context.Context, id int64) (*models.Service, error) {
	return r.getService(ctx, "SELECT id, name, description FROM services WHERE id = ?", id)
}

// GetServiceByName returns a service by its code, e.g. "KSH"
func (r *Repository) GetServiceByName(ctx context.Context, name string) (*models.Service, error) {
	return r.getService(ctx, "SELECT id, name, description FROM services WHERE name = ?", name)
}

func (r *Repository) getService(ctx context.Context, query string, arg any) (*models.Service, error) {
	var s models.Service
	var desc sql.NullString
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&s.ID, &s.Name, &desc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying service: %w", err)
	}
	s.Description = desc.String

	calls, err := r.calls(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	s.Calls = calls
	return &s, nil
}

func (r *Repository) calls(ctx context.Context, serviceID int64) ([]models.RotationCall, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT call_order, port_name, direction, terminal FROM rotations WHERE service_id = ? ORDER BY call_order",
		serviceID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying rotation: %w", err)
	}
	defer rows.Close()

	var calls []models.RotationCall
	for rows.Next() {
		var c models.RotationCall
		var direction, terminal sql.NullString
		if err := rows.Scan(&c.Order, &c.PortName, &direction, &terminal); err != nil {
			return nil, fmt.Errorf("scanning call: %w", err)
		}
		c.Direction = direction.String
		c.Terminal = terminal.String
		calls = append(calls, c)
	}
	return calls, rows.Err()
}

// DeleteService removes a service and its rotation
func (r *Repository) DeleteService(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM rotations WHERE service_id = ?", id); err != nil {
		return fmt.Errorf("deleting rotation: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM services WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting service: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrServiceNotFound
	}
	return tx.Commit()
}
