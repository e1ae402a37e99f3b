package ports

import (
	"context"
	"sort"
	"strings"
)

// Unmatched is a raw port name no directory entry matched
type Unmatched struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CheckRotations resolves every port name of every rotation and reports the
// names that did not match, most frequent first.
func CheckRotations(ctx context.Context, dir Directory, rotations [][]string) ([]Unmatched, error) {
	counts := make(map[string]int)
	for _, rotation := range rotations {
		for _, raw := range rotation {
			name := strings.TrimSpace(raw)
			if name == "" {
				continue
			}
			_, ok, err := dir.Resolve(ctx, name)
			if err != nil {
				return nil, err
			}
			if !ok {
				counts[name]++
			}
		}
	}

	out := make([]Unmatched, 0, len(counts))
	for name, n := range counts {
		out = append(out, Unmatched{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}
