package ports

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/ngmaloney/rotation-map/internal/logging"
)

// ImportStats summarises a CSV import
type ImportStats struct {
	Imported int
	Skipped  int
}

// ImportCSV loads ports from a CSV with a header row naming port_name, lat,
// lon and optionally locode and aliases. Rows that fail validation are
// skipped and counted.
func ImportCSV(ctx context.Context, svc *Service, r io.Reader) (ImportStats, error) {
	var stats ImportStats

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return stats, fmt.Errorf("reading header: %w", err)
	}
	cols := columnIndex(header)
	for _, required := range []string{"port_name", "lat", "lon"} {
		if _, ok := cols[required]; !ok {
			return stats, fmt.Errorf("missing column %q", required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	log := logging.With().Str("component", "ports").Logger()
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			stats.Skipped++
			continue
		}

		lat, errLat := strconv.ParseFloat(field(record, "lat"), 64)
		lon, errLon := strconv.ParseFloat(field(record, "lon"), 64)
		if errLat != nil || errLon != nil {
			log.Warn().Str("port", field(record, "port_name")).Msg("Skipping port with bad coordinates")
			stats.Skipped++
			continue
		}

		in := PortInput{
			Name:      field(record, "port_name"),
			Code:      field(record, "locode"),
			Latitude:  lat,
			Longitude: lon,
			Aliases:   ParseAliases(field(record, "aliases")),
		}
		if _, err := svc.CreatePort(ctx, in); err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			log.Warn().Err(err).Str("port", in.Name).Msg("Skipping port")
			stats.Skipped++
			continue
		}

		stats.Imported++
		if stats.Imported%500 == 0 {
			log.Info().Int("count", stats.Imported).Msg("Imported ports")
		}
	}

	log.Info().Int("imported", stats.Imported).Int("skipped", stats.Skipped).Msg("Port import finished")
	return stats, nil
}

// columnIndex maps lower-cased header names, plus common synonyms, to positions
func columnIndex(header []string) map[string]int {
	synonyms := map[string]string{
		"port":      "port_name",
		"name":      "port_name",
		"latitude":  "lat",
		"longitude": "lon",
		"lng":       "lon",
		"code":      "locode",
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if canonical, ok := synonyms[name]; ok {
			name = canonical
		}
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	return cols
}

// ParseAliases reads an alias cell. Accepted forms are a JSON list, a
// Python-style list with single quotes, or a single bare name.
func ParseAliases(cell string) []string {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil
	}
	if !strings.HasPrefix(cell, "[") || !strings.HasSuffix(cell, "]") {
		return []string{cell}
	}

	var list []string
	if err := json.Unmarshal([]byte(strings.ReplaceAll(cell, "'", `"`)), &list); err != nil {
		list = strings.Split(strings.ReplaceAll(strings.Trim(cell, "[]"), "'", ""), ",")
	}

	out := make([]string, 0, len(list))
	for _, a := range list {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
