// Package analytics implements the feedback prioritization and risk
// analytics engine: temporal trends with short-horizon forecasting, SLA
// breach risk, geographic hotspot ranking, department performance scoring,
// and per-ticket recommendation fusion. All computations are pure functions
// over an immutable ticket snapshot plus injected configuration.
package analytics

import (
	"strings"

	"github.com/civicpulse/backend/internal/models"
)

// SLAPolicy maps an urgency tier to its resolution target in hours.
type SLAPolicy map[string]float64

// TargetHours returns the SLA target for an urgency tier. An unknown tier
// falls back to the Medium target.
func (p SLAPolicy) TargetHours(urgency string) float64 {
	if h, ok := p[urgency]; ok && h > 0 {
		return h
	}
	if h, ok := p[models.UrgencyMedium]; ok && h > 0 {
		return h
	}
	return 72
}

// DefaultSLAPolicy returns the standard municipal targets.
func DefaultSLAPolicy() SLAPolicy {
	return SLAPolicy{
		models.UrgencyCritical: 4,
		models.UrgencyHigh:     24,
		models.UrgencyMedium:   72,
		models.UrgencyLow:      168,
	}
}

// DepartmentMap maps a ticket category to the department responsible for it.
type DepartmentMap map[string]string

// GeneralDepartment receives tickets whose category has no mapping.
const GeneralDepartment = "General"

// Department resolves a category, falling back to GeneralDepartment.
func (m DepartmentMap) Department(category string) string {
	if d, ok := m[strings.TrimSpace(category)]; ok && d != "" {
		return d
	}
	return GeneralDepartment
}

// DefaultDepartmentMap returns the built-in category routing table.
// Deployments override it through configuration.
func DefaultDepartmentMap() DepartmentMap {
	return DepartmentMap{
		"Roads & Transportation": "Infrastructure",
		"Water & Sanitation":     "Utilities",
		"Public Safety":          "Safety",
		"Healthcare":             "Health",
		"Education":              "Education",
		"Environment":            "Environment",
		"Street Lighting":        "Infrastructure",
		"Waste Management":       "Environment",
		"Parks & Recreation":     "Environment",
		"Building Permits":       "Administration",
		"Tax & Revenue":          "Administration",
		"Other":                  GeneralDepartment,
	}
}

// urgencyWeights are the hotspot severity weights per urgency tier.
var urgencyWeights = map[string]float64{
	models.UrgencyLow:      1,
	models.UrgencyMedium:   2,
	models.UrgencyHigh:     3,
	models.UrgencyCritical: 4,
}

// urgencyWeight returns the severity weight, defaulting unknown tiers to
// Medium.
func urgencyWeight(urgency string) float64 {
	if w, ok := urgencyWeights[urgency]; ok {
		return w
	}
	return urgencyWeights[models.UrgencyMedium]
}

// breachUrgencyFactors bias the breach probability toward higher tiers.
var breachUrgencyFactors = map[string]float64{
	models.UrgencyCritical: 0.9,
	models.UrgencyHigh:     0.75,
	models.UrgencyMedium:   0.5,
	models.UrgencyLow:      0.3,
}

func breachUrgencyFactor(urgency string) float64 {
	if f, ok := breachUrgencyFactors[urgency]; ok {
		return f
	}
	return breachUrgencyFactors[models.UrgencyMedium]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
