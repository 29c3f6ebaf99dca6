// Package primary is the credentialed data client. It borrows the session
// headers from the session manager, calls the operator's private finder API
// and normalizes the vendor payload into entity.Entity values.
package primary

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/warpdl/parkdl/common"
	"github.com/warpdl/parkdl/internal/entity"
	"github.com/warpdl/parkdl/internal/upstream"
)

// SourceName tags results and errors produced by this client.
const SourceName = "primary"

// HeaderSource supplies credential headers for a destination. An empty
// header set means no usable session exists.
type HeaderSource interface {
	GetAuthHeaders(ctx context.Context, dest common.Destination) http.Header
}

// Getter performs a JSON GET. *upstream.Client implements it.
type Getter interface {
	GetJSON(ctx context.Context, url string, headers http.Header, out any) error
}

// Client fetches entity lists from the private API.
type Client struct {
	api     Getter
	headers HeaderSource
	// bases overrides the per-destination API base URL.
	bases map[common.Destination]string
}

// NewClient returns a Client. bases may be nil.
func NewClient(api Getter, headers HeaderSource, bases map[common.Destination]string) *Client {
	return &Client{api: api, headers: headers, bases: bases}
}

func (c *Client) Name() string { return SourceName }

// Fetch returns the entities of kind for dest, narrowed to parkID when it is
// not empty. A missing Cookie header fails with an *upstream.AuthError
// before any request is made; 401 and 403 responses are wrapped the same
// way. Other failures are returned as the upstream client reported them.
func (c *Client) Fetch(ctx context.Context, kind entity.Kind, dest common.Destination, parkID string) ([]entity.Entity, error) {
	info, ok := dest.Info()
	if !ok {
		return nil, common.ErrUnknownDestination
	}
	h := c.headers.GetAuthHeaders(ctx, dest)
	if h.Get("Cookie") == "" {
		return nil, &upstream.AuthError{Source: SourceName, Err: upstream.ErrNoCredentials}
	}

	var payload listResponse
	if err := c.api.GetJSON(ctx, c.listURL(info, kind, parkID), h, &payload); err != nil {
		var se *upstream.StatusError
		if errors.As(err, &se) && upstream.IsAuthStatus(se.Code) {
			return nil, &upstream.AuthError{Source: SourceName, Err: err}
		}
		return nil, fmt.Errorf("%s %s: %w", SourceName, kind.Plural(), err)
	}

	out := make([]entity.Entity, 0, len(payload.Results))
	for _, raw := range payload.Results {
		v, ok := decodeRecord(raw)
		if !ok {
			continue
		}
		e, ok := normalize(v, kind, dest)
		if !ok {
			continue
		}
		if parkID != "" && e.ParkID != nil && *e.ParkID != parkID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (c *Client) listURL(info common.DestinationInfo, kind entity.Kind, parkID string) string {
	base := info.APIBase
	if b, ok := c.bases[info.ID]; ok && b != "" {
		base = b
	}
	u := fmt.Sprintf("%s/finder/api/v1/explorer-service/list-entities/%s/%s;entityType=destination/%s",
		strings.TrimRight(base, "/"), info.ID, info.EntityID, kind.Plural())
	if parkID != "" {
		u += "?" + url.Values{"parkId": {parkID}}.Encode()
	}
	return u
}
