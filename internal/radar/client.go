// internal/radar/client.go
package radar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/objmap/mapcore/pkg/core"
)

// MainField is the map type of the overworld.
const MainField = "MainField"

// ErrStatus is returned when the object search service answers with a non-200 status.
var ErrStatus = errors.New("unexpected status")

// Query selects objects on a map.
type Query struct {
	MapType      string
	MapName      string
	Query        string
	WithMapNames bool
	// Limit caps the number of returned objects. Zero leaves the server default.
	Limit int
}

func (q Query) path(endpoint string) string {
	mapType := q.MapType
	if mapType == "" {
		mapType = MainField
	}
	return fmt.Sprintf("/%s/%s/%s", endpoint, url.PathEscape(mapType), url.PathEscape(q.MapName))
}

func (q Query) values() url.Values {
	v := url.Values{}
	v.Set("q", q.Query)
	if q.WithMapNames {
		v.Set("withMapNames", "true")
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// Client talks to the object search service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new search service client.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Healthcheck checks if the search service is reachable.
func (c *Client) Healthcheck(ctx context.Context) error {
	return c.getJSON(ctx, "/healthcheck", nil, nil)
}

// GetObjs returns the objects matching q.
func (c *Client) GetObjs(ctx context.Context, q Query) ([]core.ObjectMinData, error) {
	var objs []core.ObjectMinData
	if err := c.getJSON(ctx, q.path("objs"), q.values(), &objs); err != nil {
		return nil, fmt.Errorf("searching objects %q: %w", q.Query, err)
	}
	return objs, nil
}

// GetObjIDs returns the ids of the objects matching q.
func (c *Client) GetObjIDs(ctx context.Context, q Query) ([]int64, error) {
	var ids []int64
	if err := c.getJSON(ctx, q.path("objids"), q.values(), &ids); err != nil {
		return nil, fmt.Errorf("searching object ids %q: %w", q.Query, err)
	}
	return ids, nil
}

// GetObj returns the full record of one object.
func (c *Client) GetObj(ctx context.Context, objID int64) (core.ObjectData, error) {
	var obj core.ObjectData
	if err := c.getJSON(ctx, "/obj/"+strconv.FormatInt(objID, 10), nil, &obj); err != nil {
		return core.ObjectData{}, fmt.Errorf("fetching object %d: %w", objID, err)
	}
	return obj, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w %d", ErrStatus, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
