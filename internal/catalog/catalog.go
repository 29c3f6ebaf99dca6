// Package catalog is the read surface for park data. It answers from the
// cache when it can and otherwise runs an acquisition, caching the result
// along with the name of the client that produced it.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/warpdl/parkdl/common"
	"github.com/warpdl/parkdl/internal/acquire"
	"github.com/warpdl/parkdl/internal/cache"
	"github.com/warpdl/parkdl/internal/entity"
	"github.com/warpdl/parkdl/pkg/logger"
)

// Cache lifetimes in hours per entity type.
const (
	ATTRACTIONS_TTL_HOURS = 24
	DINING_TTL_HOURS      = 24
	SHOWS_TTL_HOURS       = 12
)

func ttlHours(kind entity.Kind) float64 {
	switch kind {
	case entity.KindShow:
		return SHOWS_TTL_HOURS
	case entity.KindDining:
		return DINING_TTL_HOURS
	default:
		return ATTRACTIONS_TTL_HOURS
	}
}

// Fetcher runs one acquisition. *acquire.Orchestrator implements it.
type Fetcher interface {
	Fetch(ctx context.Context, kind entity.Kind, dest common.Destination, parkID string) (acquire.Result, error)
}

// Listing is a fetched entity list plus its provenance.
type Listing struct {
	Entities  []entity.Entity `json:"entities"`
	Source    string          `json:"source"`
	FetchedAt time.Time       `json:"fetchedAt"`
	FromCache bool            `json:"fromCache"`
}

type Service struct {
	fetcher Fetcher
	cache   cache.Store
	l       logger.Logger
	now     func() time.Time
}

// NewService returns a Service. store may be nil to disable caching.
func NewService(f Fetcher, store cache.Store, l logger.Logger) *Service {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Service{fetcher: f, cache: store, l: l, now: time.Now}
}

// WithoutCache returns a copy of s that always fetches and never writes the
// cache.
func (s *Service) WithoutCache() *Service {
	cp := *s
	cp.cache = nil
	return &cp
}

// Key is the cache key for a query.
func Key(kind entity.Kind, dest common.Destination, parkID string) string {
	if parkID == "" {
		parkID = "all"
	}
	return fmt.Sprintf("%s:%s:%s", dest, kind.Plural(), parkID)
}

// Fetch returns the listing for kind at dest, optionally narrowed to parkID.
// Cache failures are logged and never fail the call.
func (s *Service) Fetch(ctx context.Context, kind entity.Kind, dest common.Destination, parkID string) (Listing, error) {
	return s.fetch(ctx, kind, dest, parkID, true)
}

// Refresh skips the cache read but still stores the fresh listing.
func (s *Service) Refresh(ctx context.Context, kind entity.Kind, dest common.Destination, parkID string) (Listing, error) {
	return s.fetch(ctx, kind, dest, parkID, false)
}

func (s *Service) fetch(ctx context.Context, kind entity.Kind, dest common.Destination, parkID string, useCached bool) (Listing, error) {
	if !dest.Valid() {
		return Listing{}, common.ErrUnknownDestination
	}
	key := Key(kind, dest, parkID)
	if useCached {
		if l, ok := s.cached(ctx, key); ok {
			return l, nil
		}
	}

	res, err := s.fetcher.Fetch(ctx, kind, dest, parkID)
	if err != nil {
		return Listing{}, err
	}
	listing := Listing{
		Entities:  res.Entities,
		Source:    res.Source,
		FetchedAt: s.now().UTC(),
	}
	if listing.Entities == nil {
		listing.Entities = []entity.Entity{}
	}
	if s.cache != nil {
		err := s.cache.Set(ctx, key, listing.Entities, cache.SetOptions{TTLHours: ttlHours(kind), Source: res.Source})
		if err != nil {
			s.l.Warning("catalog: cache write %s: %v", key, err)
		}
	}
	return listing, nil
}

func (s *Service) cached(ctx context.Context, key string) (Listing, bool) {
	if s.cache == nil {
		return Listing{}, false
	}
	e, err := s.cache.Get(ctx, key)
	if err != nil {
		s.l.Warning("catalog: cache read %s: %v", key, err)
		return Listing{}, false
	}
	if e == nil {
		return Listing{}, false
	}
	var ents []entity.Entity
	if err := json.Unmarshal(e.Data, &ents); err != nil {
		s.l.Warning("catalog: cache decode %s: %v", key, err)
		return Listing{}, false
	}
	return Listing{Entities: ents, Source: e.Source, FetchedAt: e.StoredAt, FromCache: true}, true
}

func (s *Service) GetAttractions(ctx context.Context, dest common.Destination, parkID string) ([]entity.Entity, error) {
	l, err := s.Fetch(ctx, entity.KindAttraction, dest, parkID)
	return l.Entities, err
}

func (s *Service) GetDining(ctx context.Context, dest common.Destination, parkID string) ([]entity.Entity, error) {
	l, err := s.Fetch(ctx, entity.KindDining, dest, parkID)
	return l.Entities, err
}

func (s *Service) GetShows(ctx context.Context, dest common.Destination, parkID string) ([]entity.Entity, error) {
	l, err := s.Fetch(ctx, entity.KindShow, dest, parkID)
	return l.Entities, err
}
