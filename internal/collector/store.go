package collector

import (
	"sort"
	"strings"
	"sync"

	"github.com/ilometrics/ilo_exporter/internal/ilo"
	"github.com/ilometrics/ilo_exporter/internal/telemetry"
)

// store holds the last-known readings per source document. Recording a
// document replaces its readings wholesale, so these behave as gauges:
// recording the same readings twice yields the same state, and a sensor that
// disappears from a successfully parsed document is pruned on that scrape.
// Readings from a document that failed this scrape keep their last values.
type store struct {
	mu   sync.RWMutex
	docs map[ilo.DocumentKind]map[string]telemetry.Reading
}

func newStore() *store {
	return &store{
		docs: make(map[ilo.DocumentKind]map[string]telemetry.Reading),
	}
}

func (s *store) record(kind ilo.DocumentKind, readings []telemetry.Reading) {
	fresh := make(map[string]telemetry.Reading, len(readings))
	for _, r := range readings {
		fresh[readingKey(r)] = r
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[kind] = fresh
}

// snapshot returns all current readings in a deterministic order.
func (s *store) snapshot() []telemetry.Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []telemetry.Reading
	for _, readings := range s.docs {
		for _, r := range readings {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return readingKey(out[i]) < readingKey(out[j])
	})
	return out
}

func readingKey(r telemetry.Reading) string {
	return string(r.Kind) + "\xff" + strings.Join(r.Labels, "\xff")
}
