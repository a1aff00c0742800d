package radar

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/objmap/mapcore/pkg/core"
)

// MapInfoStore loads the main field summary once and serves it from memory.
type MapInfoStore struct {
	source string
	client *Client

	once sync.Once
	info core.MapInfo
	err  error
}

// NewMapInfoStore creates a store reading the summary from source, either a
// local file or an http(s) URL fetched through c.
func NewMapInfoStore(source string, c *Client) *MapInfoStore {
	return &MapInfoStore{source: source, client: c}
}

// NewStaticMapInfoStore returns a store serving info as is.
func NewStaticMapInfoStore(info core.MapInfo) *MapInfoStore {
	s := &MapInfoStore{info: info}
	s.once.Do(func() {})
	return s
}

// Load reads the summary. Later calls return the first result.
func (s *MapInfoStore) Load(ctx context.Context) error {
	s.once.Do(func() {
		s.info, s.err = s.load(ctx)
	})
	return s.err
}

// InfoMainField returns the loaded summary. It is empty until Load succeeds.
func (s *MapInfoStore) InfoMainField() core.MapInfo {
	return s.info
}

func (s *MapInfoStore) load(ctx context.Context) (core.MapInfo, error) {
	var info core.MapInfo

	if strings.HasPrefix(s.source, "http://") || strings.HasPrefix(s.source, "https://") {
		if s.client == nil {
			return info, fmt.Errorf("loading map summary: no client for %s", s.source)
		}
		c := &Client{baseURL: s.source, httpClient: s.client.httpClient}
		if err := c.getJSON(ctx, "", nil, &info); err != nil {
			return info, fmt.Errorf("loading map summary: %w", err)
		}
		return info, nil
	}

	data, err := os.ReadFile(s.source)
	if err != nil {
		return info, fmt.Errorf("loading map summary: %w", err)
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return info, fmt.Errorf("parsing map summary: %w", err)
	}
	return info, nil
}
