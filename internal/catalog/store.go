package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Load failure classes. Callers that only log do not need to branch on
// these; the scheduler and tests do.
var (
	ErrFetch = errors.New("catalog fetch failed")
	ErrParse = errors.New("catalog parse failed")
)

var (
	catalogVideos = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "xsen_catalog_videos",
		Help: "Number of videos in the current catalog snapshot.",
	})
	catalogRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xsen_catalog_refreshes_total",
		Help: "Catalog refresh attempts by outcome.",
	}, []string{"status"})
)

// Store owns the current catalog snapshot. The snapshot is published via a
// single atomic pointer swap, so readers always observe a fully-old or
// fully-new catalog, never a mix.
type Store struct {
	url     string
	client  *http.Client
	current atomic.Pointer[Catalog]
	gen     atomic.Uint64
}

// NewStore creates a store that loads the catalog document from url.
func NewStore(url string, fetchTimeout time.Duration) *Store {
	if fetchTimeout <= 0 {
		fetchTimeout = 30 * time.Second
	}
	return &Store{
		url:    url,
		client: &http.Client{Timeout: fetchTimeout},
	}
}

// Load fetches and parses the remote catalog document and atomically
// replaces the visible snapshot, only on full success. On any failure the
// previous snapshot stays authoritative: stale results beat no results.
func (s *Store) Load(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		catalogRefreshes.WithLabelValues("failed").Inc()
		return fmt.Errorf("%w: %v", ErrFetch, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		catalogRefreshes.WithLabelValues("failed").Inc()
		return fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		catalogRefreshes.WithLabelValues("failed").Inc()
		return fmt.Errorf("%w: unexpected status %d", ErrFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		catalogRefreshes.WithLabelValues("failed").Inc()
		return fmt.Errorf("%w: %v", ErrFetch, err)
	}

	var raw []Entry
	if err := json.Unmarshal(body, &raw); err != nil {
		catalogRefreshes.WithLabelValues("failed").Inc()
		return fmt.Errorf("%w: %v", ErrParse, err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, e := range raw {
		if e.Title == "" {
			continue
		}
		entries = append(entries, e)
	}

	c := &Catalog{
		Entries:    entries,
		Generation: s.gen.Add(1),
		LoadedAt:   time.Now().UTC(),
	}
	s.current.Store(c)

	catalogVideos.Set(float64(len(entries)))
	catalogRefreshes.WithLabelValues("ok").Inc()
	log.Info().Int("videos", len(entries)).Uint64("generation", c.Generation).Msg("catalog loaded")
	return nil
}

// Snapshot returns the current catalog, or nil before the first successful
// load. Callers must treat the result as read-only and must not re-read the
// store mid-request.
func (s *Store) Snapshot() *Catalog {
	return s.current.Load()
}

// Loaded reports whether at least one load has succeeded.
func (s *Store) Loaded() bool {
	return s.current.Load() != nil
}

// Generation returns the generation of the current snapshot, 0 if none.
func (s *Store) Generation() uint64 {
	if c := s.current.Load(); c != nil {
		return c.Generation
	}
	return 0
}

// Count returns the size of the current snapshot.
func (s *Store) Count() int {
	return s.current.Load().Len()
}
