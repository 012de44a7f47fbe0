package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/civicpulse/backend/internal/analytics"
	"github.com/civicpulse/backend/internal/geocode"
	"github.com/civicpulse/backend/internal/metrics"
	"github.com/civicpulse/backend/internal/models"
)

// @Summary Ticket recommendation
// @Description Fused priority recommendation for a single ticket
// @Tags analytics
// @Produce json
// @Param id path string true "Ticket ID"
// @Success 200 {object} analytics.Recommendation
// @Router /api/tickets/{id}/recommendation [get]
func (h *Handler) TicketRecommendation(c *gin.Context) {
	id := c.Param("id")
	ticket, err := h.Store.GetTicket(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Ticket not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to get ticket", err.Error())
		return
	}

	signals := h.lookupSignals(c.Request.Context(), ticket)
	rec := h.Engine.RecommendTicket(ticket, time.Now().UTC(), signals)
	c.JSON(http.StatusOK, rec)
}

// lookupSignals degrades to empty signals when the provider fails; the
// recommendation then rests on SLA risk and sentiment alone.
func (h *Handler) lookupSignals(ctx context.Context, t models.Ticket) models.Signals {
	timeout := h.SignalTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	signals, latencyMs, err := h.Signals.Signals(sctx, t)
	if err != nil {
		metrics.SignalLookups.WithLabelValues("error").Inc()
		h.Logger.Warn().Err(err).Str("ticket_id", t.ID).Msg("signal lookup failed, degrading")
		return models.Signals{}
	}
	metrics.SignalLookups.WithLabelValues("ok").Inc()
	h.Logger.Debug().Str("ticket_id", t.ID).Int64("latency_ms", latencyMs).Msg("signal lookup")
	return signals
}

func (h *Handler) Trends(c *gin.Context) {
	granularity := strings.ToLower(c.DefaultQuery("granularity", analytics.GranularityDaily))
	switch granularity {
	case analytics.GranularityDaily, analytics.GranularityWeekly, analytics.GranularityMonthly:
	default:
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "granularity must be daily, weekly or monthly", nil)
		return
	}
	periods, _ := strconv.Atoi(c.DefaultQuery("periods", "0"))

	tickets, err := h.Store.AllTickets(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load tickets", err.Error())
		return
	}
	report := analytics.AnalyzeTrends(tickets, granularity, periods)
	metrics.SkippedRecords.Add(float64(report.SkippedRecords))
	c.JSON(http.StatusOK, report)
}

// @Summary SLA risk report
// @Tags analytics
// @Produce json
// @Success 200 {object} analytics.SLAReport
// @Router /api/analytics/sla [get]
func (h *Handler) SLAReport(c *gin.Context) {
	tickets, err := h.Store.AllTickets(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load tickets", err.Error())
		return
	}
	report := analytics.PredictSLABreaches(tickets, time.Now().UTC(), h.Engine.Policy)
	metrics.SLABreachedTickets.Set(float64(report.BreachCount))
	metrics.SLAAtRiskTickets.Set(float64(report.AtRiskCount))
	metrics.SkippedRecords.Add(float64(report.SkippedRecords))
	c.JSON(http.StatusOK, report)
}

func (h *Handler) Hotspots(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(analytics.DefaultHotspotLimit)))

	tickets, err := h.Store.AllTickets(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load tickets", err.Error())
		return
	}
	report := analytics.RankHotspots(tickets, limit)

	if resolve := c.Query("resolve"); resolve == "1" || strings.EqualFold(resolve, "true") {
		city := strings.TrimSpace(c.Query("city"))
		coords := h.resolveHotspotAreas(c.Request.Context(), report.Hotspots, city)
		c.JSON(http.StatusOK, gin.H{"report": report, "coordinates": coords})
		return
	}
	c.JSON(http.StatusOK, report)
}

type areaCoordinates struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DisplayName string  `json:"display_name"`
}

func (h *Handler) resolveHotspotAreas(ctx context.Context, hotspots []analytics.Hotspot, city string) map[string]areaCoordinates {
	coords := map[string]areaCoordinates{}
	if h.Geocoder == nil {
		return coords
	}
	resolved := 0
	for _, hs := range hotspots {
		if resolved >= 5 {
			break
		}
		if geocode.IsGridLabel(hs.Area) {
			continue
		}
		lat, lon, displayName, _, err := h.Geocoder.Geocode(ctx, geocode.BuildAreaQuery(city, hs.Area))
		if err != nil {
			h.Logger.Debug().Err(err).Str("area", hs.Area).Msg("geocode miss")
			continue
		}
		coords[hs.Area] = areaCoordinates{Lat: lat, Lon: lon, DisplayName: displayName}
		resolved++
	}
	return coords
}

func (h *Handler) Departments(c *gin.Context) {
	tickets, err := h.Store.AllTickets(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load tickets", err.Error())
		return
	}
	report := analytics.ScoreDepartments(tickets, h.Engine.Departments, h.Engine.Policy)
	metrics.SkippedRecords.Add(float64(report.SkippedRecords))
	c.JSON(http.StatusOK, report)
}

// @Summary Run full analytics report
// @Description Runs all analyzers over the full ticket set and persists the run
// @Tags analytics
// @Produce json
// @Success 200 {object} analytics.Report
// @Router /api/analytics/report [post]
func (h *Handler) AnalyticsReport(c *gin.Context) {
	granularity := strings.ToLower(c.DefaultQuery("granularity", analytics.GranularityDaily))
	ctx := c.Request.Context()

	tickets, err := h.Store.AllTickets(ctx)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load tickets", err.Error())
		return
	}

	runID := uuid.NewString()
	if err := h.Store.CreateRun(ctx, runID, "running"); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to create run", err.Error())
		return
	}

	start := time.Now()
	report, err := h.Engine.Run(ctx, tickets, time.Now().UTC(), granularity)
	metrics.ReportDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ReportRuns.WithLabelValues("failed").Inc()
		if ferr := h.Store.FinishRun(ctx, runID, "failed", nil); ferr != nil {
			h.Logger.Error().Err(ferr).Str("run_id", runID).Msg("failed to mark run failed")
		}
		writeError(c, http.StatusInternalServerError, "ANALYTICS_ERROR", "Analytics run failed", err.Error())
		return
	}

	metrics.ReportRuns.WithLabelValues("completed").Inc()
	metrics.SLABreachedTickets.Set(float64(report.SLA.BreachCount))
	metrics.SLAAtRiskTickets.Set(float64(report.SLA.AtRiskCount))
	summary, merr := json.Marshal(report)
	if merr != nil {
		h.Logger.Error().Err(merr).Str("run_id", runID).Msg("failed to encode run summary")
	}
	if err := h.Store.FinishRun(ctx, runID, "completed", summary); err != nil {
		h.Logger.Error().Err(err).Str("run_id", runID).Msg("failed to persist run summary")
	}
	c.JSON(http.StatusOK, gin.H{"run_id": runID, "report": report})
}

func (h *Handler) RunsLatest(c *gin.Context) {
	run, err := h.Store.GetLatestRun(c.Request.Context())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "No analytics runs yet", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load run", err.Error())
		return
	}
	c.JSON(http.StatusOK, run)
}
