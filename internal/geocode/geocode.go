package geocode

import (
	"context"
	"errors"
	"strings"
)

var ErrNotFound = errors.New("geocode not found")

type Geocoder interface {
	Geocode(ctx context.Context, query string) (lat float64, lon float64, displayName string, confidence float64, err error)
}

// BuildAreaQuery assembles a lookup string for a hotspot area label. A grid
// cell label ("52.52,13.40") is already a coordinate pair and needs no
// lookup.
func BuildAreaQuery(city string, area string) string {
	city = strings.TrimSpace(city)
	area = strings.TrimSpace(area)
	parts := []string{}
	if area != "" {
		parts = append(parts, area)
	}
	if city != "" {
		parts = append(parts, city)
	}
	return strings.Join(parts, ", ")
}

// IsGridLabel reports whether an area label is a synthesized coordinate
// bucket rather than a place name.
func IsGridLabel(area string) bool {
	area = strings.TrimSpace(area)
	if area == "" {
		return false
	}
	comma := strings.IndexByte(area, ',')
	if comma <= 0 || comma == len(area)-1 {
		return false
	}
	return isDecimal(area[:comma]) && isDecimal(area[comma+1:])
}

func isDecimal(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if s[0] == '-' {
		s = s[1:]
	}
	dot := false
	for _, r := range s {
		if r == '.' {
			if dot {
				return false
			}
			dot = true
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
