package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// NominatimGeocoder resolves hotspot area names to coordinates through the
// OSM Nominatim search API. Results are cached for the process lifetime and
// requests are spaced by MinInterval to respect the public usage policy.
type NominatimGeocoder struct {
	BaseURL     string
	UserAgent   string
	MinInterval time.Duration
	Client      *http.Client

	mu        sync.Mutex
	lastReqAt time.Time
	cache     map[string]place
}

type place struct {
	Lat         float64
	Lon         float64
	DisplayName string
	Confidence  float64
}

type searchItem struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
}

func (g *NominatimGeocoder) Geocode(ctx context.Context, query string) (float64, float64, string, float64, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	if key == "" {
		return 0, 0, "", 0, ErrNotFound
	}

	g.mu.Lock()
	if g.cache == nil {
		g.cache = map[string]place{}
	}
	if cached, ok := g.cache[key]; ok {
		g.mu.Unlock()
		return cached.Lat, cached.Lon, cached.DisplayName, cached.Confidence, nil
	}
	g.throttleLocked()
	g.mu.Unlock()

	items, err := g.search(ctx, query)
	if err != nil {
		return 0, 0, "", 0, err
	}
	result, err := decodePlace(items)
	if err != nil {
		return 0, 0, "", 0, err
	}

	g.mu.Lock()
	g.cache[key] = result
	g.mu.Unlock()

	return result.Lat, result.Lon, result.DisplayName, result.Confidence, nil
}

// throttleLocked blocks until MinInterval has passed since the previous
// request. Called with g.mu held; releases and reacquires it while sleeping.
func (g *NominatimGeocoder) throttleLocked() {
	interval := g.MinInterval
	if interval <= 0 {
		interval = time.Second
	}
	if wait := time.Until(g.lastReqAt.Add(interval)); wait > 0 {
		g.mu.Unlock()
		time.Sleep(wait)
		g.mu.Lock()
	}
	g.lastReqAt = time.Now()
}

func (g *NominatimGeocoder) search(ctx context.Context, query string) ([]searchItem, error) {
	base := g.BaseURL
	if base == "" {
		base = "https://nominatim.openstreetmap.org"
	}
	agent := g.UserAgent
	if agent == "" {
		agent = "civicpulse-backend/1.0"
	}
	client := g.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", agent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("nominatim http error: %s", resp.Status)
	}

	var items []searchItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, err
	}
	return items, nil
}

func decodePlace(items []searchItem) (place, error) {
	if len(items) == 0 {
		return place{}, ErrNotFound
	}
	lat, err := strconv.ParseFloat(items[0].Lat, 64)
	if err != nil {
		return place{}, fmt.Errorf("nominatim lat: %w", err)
	}
	lon, err := strconv.ParseFloat(items[0].Lon, 64)
	if err != nil {
		return place{}, fmt.Errorf("nominatim lon: %w", err)
	}
	if items[0].DisplayName == "" && lat == 0 && lon == 0 {
		return place{}, ErrNotFound
	}
	return place{
		Lat:         lat,
		Lon:         lon,
		DisplayName: items[0].DisplayName,
		Confidence:  items[0].Importance,
	}, nil
}
