package rotations

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ngmaloney/rotation-map/internal/logging"
	"github.com/ngmaloney/rotation-map/internal/models"
)

// ImportProforma loads services from a proforma schedule CSV with the
// columns Service, Port and optionally Bound and Terminal. Rows keep their
// file order within a service. Imported services replace stored ones of the
// same name. Returns the number of services written.
func ImportProforma(ctx context.Context, repo *Repository, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("reading header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, required := range []string{"service", "port"} {
		if _, ok := cols[required]; !ok {
			return 0, fmt.Errorf("missing column %q", required)
		}
	}
	field := func(record []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var order []string
	services := make(map[string]*models.Service)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("reading proforma: %w", err)
		}

		name, port := field(record, "service"), field(record, "port")
		if name == "" || port == "" {
			continue
		}

		svc, ok := services[name]
		if !ok {
			svc = &models.Service{Name: name, Description: "Service " + name}
			services[name] = svc
			order = append(order, name)
		}
		svc.Calls = append(svc.Calls, models.RotationCall{
			PortName:  port,
			Direction: field(record, "bound"),
			Terminal:  field(record, "terminal"),
		})
	}

	for _, name := range order {
		if err := repo.SaveService(ctx, services[name]); err != nil {
			return 0, err
		}
	}

	logging.Info().Int("services", len(order)).Msg("Proforma import finished")
	return len(order), nil
}

// FromRotation builds an unsaved service from a rotation string
func FromRotation(name, rotation string) models.Service {
	svc := models.Service{Name: name}
	for i, port := range Parse(rotation) {
		svc.Calls = append(svc.Calls, models.RotationCall{Order: i + 1, PortName: port})
	}
	return svc
}
