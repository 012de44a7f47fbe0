package analytics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/civicpulse/backend/internal/models"
	"github.com/civicpulse/backend/internal/utils"
)

// DefaultHotspotLimit caps the ranked hotspot list when the caller passes no
// explicit limit.
const DefaultHotspotLimit = 10

// centroidRadiusKm is how far an unlabeled ticket may sit from a named
// area's centroid and still be attributed to it.
const centroidRadiusKm = 5.0

// Hotspot is one area bucket scored by volume, severity and sentiment.
type Hotspot struct {
	Area                 string  `json:"area"`
	Count                int     `json:"count"`
	AvgUrgencyWeight     float64 `json:"avg_urgency_weight"`
	NegativeSentimentPct float64 `json:"negative_sentiment_pct"`
	Score                float64 `json:"score"`
}

// HotspotReport is the output of RankHotspots.
type HotspotReport struct {
	Hotspots        []Hotspot                 `json:"hotspots"`
	CategoryByArea  map[string]map[string]int `json:"category_by_area"`
	TotalAreas      int                       `json:"total_areas"`
	Recommendations []string                  `json:"recommendations"`
}

// RankHotspots scores area buckets as count * avgUrgency * (1 + negFraction)
// and returns the top limit areas. Tickets without an area label but with
// coordinates are attributed to the nearest named-area centroid within 5 km,
// falling back to a coarse grid cell. Tickets with neither are ignored.
func RankHotspots(tickets []models.Ticket, limit int) HotspotReport {
	if limit <= 0 {
		limit = DefaultHotspotLimit
	}

	centroids := areaCentroids(tickets)

	type bucket struct {
		count      int
		urgencySum float64
		negative   int
		categories map[string]int
	}
	buckets := map[string]*bucket{}
	for _, t := range tickets {
		area := bucketArea(t, centroids)
		if area == "" {
			continue
		}
		b := buckets[area]
		if b == nil {
			b = &bucket{categories: map[string]int{}}
			buckets[area] = b
		}
		b.count++
		b.urgencySum += urgencyWeight(t.Urgency)
		if t.Sentiment == models.SentimentNegative {
			b.negative++
		}
		if t.Category != "" {
			b.categories[t.Category]++
		}
	}

	report := HotspotReport{
		CategoryByArea: map[string]map[string]int{},
		TotalAreas:     len(buckets),
	}
	if len(buckets) == 0 {
		report.Recommendations = []string{"No significant hotspots identified"}
		return report
	}

	hotspots := make([]Hotspot, 0, len(buckets))
	for area, b := range buckets {
		avgUrgency := b.urgencySum / float64(b.count)
		negFraction := float64(b.negative) / float64(b.count)
		hotspots = append(hotspots, Hotspot{
			Area:                 area,
			Count:                b.count,
			AvgUrgencyWeight:     avgUrgency,
			NegativeSentimentPct: negFraction * 100,
			Score:                float64(b.count) * avgUrgency * (1 + negFraction),
		})
	}
	sort.Slice(hotspots, func(i, j int) bool {
		if hotspots[i].Score == hotspots[j].Score {
			return hotspots[i].Area < hotspots[j].Area
		}
		return hotspots[i].Score > hotspots[j].Score
	})
	if len(hotspots) > limit {
		hotspots = hotspots[:limit]
	}
	report.Hotspots = hotspots

	top5 := hotspots
	if len(top5) > 5 {
		top5 = top5[:5]
	}
	for _, h := range top5 {
		report.CategoryByArea[h.Area] = topCategoryCounts(buckets[h.Area].categories, 3)
	}

	report.Recommendations = hotspotRecommendations(hotspots)
	return report
}

// areaCentroids averages coordinates per named area from tickets carrying
// both a label and a position.
func areaCentroids(tickets []models.Ticket) map[string][2]float64 {
	type acc struct {
		lat, lon float64
		n        int
	}
	sums := map[string]*acc{}
	for _, t := range tickets {
		area := strings.TrimSpace(t.Area)
		if area == "" || t.Lat == nil || t.Lon == nil {
			continue
		}
		a := sums[area]
		if a == nil {
			a = &acc{}
			sums[area] = a
		}
		a.lat += *t.Lat
		a.lon += *t.Lon
		a.n++
	}
	centroids := make(map[string][2]float64, len(sums))
	for area, a := range sums {
		centroids[area] = [2]float64{a.lat / float64(a.n), a.lon / float64(a.n)}
	}
	return centroids
}

func bucketArea(t models.Ticket, centroids map[string][2]float64) string {
	if area := strings.TrimSpace(t.Area); area != "" {
		return area
	}
	if t.Lat == nil || t.Lon == nil {
		return ""
	}
	best := ""
	bestDist := centroidRadiusKm
	for area, c := range centroids {
		d := utils.HaversineKm(*t.Lat, *t.Lon, c[0], c[1])
		if d < bestDist || (d == bestDist && best != "" && area < best) {
			best = area
			bestDist = d
		}
	}
	if best != "" {
		return best
	}
	return fmt.Sprintf("%.2f,%.2f", *t.Lat, *t.Lon)
}

func topCategoryCounts(counts map[string]int, n int) map[string]int {
	categories := make([]string, 0, len(counts))
	for c := range counts {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		if counts[categories[i]] == counts[categories[j]] {
			return categories[i] < categories[j]
		}
		return counts[categories[i]] > counts[categories[j]]
	})
	if len(categories) > n {
		categories = categories[:n]
	}
	top := make(map[string]int, len(categories))
	for _, c := range categories {
		top[c] = counts[c]
	}
	return top
}

func hotspotRecommendations(hotspots []Hotspot) []string {
	if len(hotspots) == 0 {
		return []string{"No significant hotspots identified"}
	}
	top := hotspots[0]
	recs := []string{fmt.Sprintf("Top hotspot: %s with %d complaints", top.Area, top.Count)}
	if top.NegativeSentimentPct > 60 {
		recs = append(recs, fmt.Sprintf("High negative sentiment in %s - immediate attention needed", top.Area))
	}
	if len(hotspots) >= 3 {
		recs = append(recs, fmt.Sprintf("%d hotspots require focused intervention", len(hotspots)))
	}
	return recs
}
