// Package fallback is the public, unauthenticated data client. Its payload
// carries attributes as free-form key/value tags; a fixed extraction table
// maps them onto entity.Entity so results match the primary client's.
package fallback

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/warpdl/parkdl/common"
	"github.com/warpdl/parkdl/internal/entity"
)

const (
	SourceName = "fallback"

	DEF_BASE_URL = "https://api.themeparks.wiki"

	// The public API asks for modest request rates.
	DEF_RATE  = 4
	DEF_BURST = 2
)

// NewLimiter returns the politeness limiter for the public API. rps <= 0
// selects DEF_RATE.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		rps = DEF_RATE
	}
	return rate.NewLimiter(rate.Limit(rps), DEF_BURST)
}

// Getter performs a JSON GET. *upstream.Client implements it.
type Getter interface {
	GetJSON(ctx context.Context, url string, headers http.Header, out any) error
}

type Client struct {
	api     Getter
	baseURL string
}

// NewClient returns a Client for baseURL, or DEF_BASE_URL when empty.
func NewClient(api Getter, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DEF_BASE_URL
	}
	return &Client{api: api, baseURL: strings.TrimRight(baseURL, "/")}
}

func (c *Client) Name() string { return SourceName }

// Fetch returns the entities of kind for dest. No credentials are sent.
func (c *Client) Fetch(ctx context.Context, kind entity.Kind, dest common.Destination, parkID string) ([]entity.Entity, error) {
	info, ok := dest.Info()
	if !ok {
		return nil, common.ErrUnknownDestination
	}
	url := fmt.Sprintf("%s/v1/entity/%s/children", c.baseURL, info.FallbackID)

	var payload childrenResponse
	if err := c.api.GetJSON(ctx, url, nil, &payload); err != nil {
		return nil, fmt.Errorf("%s %s: %w", SourceName, kind.Plural(), err)
	}

	out := make([]entity.Entity, 0, len(payload.Children))
	for _, raw := range payload.Children {
		ch, ok := decodeChild(raw)
		if !ok || kindOf(string(ch.EntityType)) != kind {
			continue
		}
		if parkID != "" && ch.park() != parkID {
			continue
		}
		if e, ok := normalize(ch, kind, dest); ok {
			out = append(out, e)
		}
	}
	return out, nil
}
