package handlers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/civicpulse/backend/internal/analytics"
	"github.com/civicpulse/backend/internal/db"
	"github.com/civicpulse/backend/internal/geocode"
	"github.com/civicpulse/backend/internal/models"
	"github.com/civicpulse/backend/internal/signal"
)

type Handler struct {
	Store         *db.Store
	Signals       signal.Provider
	SignalTimeout time.Duration
	Geocoder      geocode.Geocoder
	Engine        analytics.Engine
	Validator     *validator.Validate
	Logger        zerolog.Logger
	AdminKey      string
}

type ImportSummary struct {
	Parsed   int      `json:"parsed"`
	Inserted int      `json:"inserted"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Import tickets CSV
// @Description Upload a tickets CSV; malformed rows are skipped and counted
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param tickets formData file true "tickets.csv"
// @Success 200 {object} ImportSummary
// @Failure 400 {object} map[string]any
// @Router /api/import [post]
func (h *Handler) Import(c *gin.Context) {
	ticketsFile, err := c.FormFile("tickets")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "tickets file required", nil)
		return
	}
	if !validateExt(ticketsFile.Filename) {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "tickets file must be .csv", nil)
		return
	}

	tickets, errs := parseTicketsCSV(ticketsFile)
	summary := ImportSummary{
		Parsed:  len(tickets),
		Skipped: len(errs),
		Errors:  errs,
	}
	if summary.Errors == nil {
		summary.Errors = []string{}
	}
	if len(tickets) == 0 {
		c.JSON(http.StatusOK, summary)
		return
	}

	ctx := c.Request.Context()
	if replace := c.Query("replace"); replace == "1" || strings.EqualFold(replace, "true") {
		truncate := func(tx pgx.Tx) error { return h.Store.TruncateTickets(ctx, tx) }
		if err := h.Store.WithTx(ctx, truncate); err != nil {
			writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to reset tickets", err.Error())
			return
		}
	}

	inserted, err := h.Store.InsertTickets(ctx, tickets)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert tickets", err.Error())
		return
	}
	summary.Inserted = int(inserted)
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) TicketsList(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	filter := db.TicketFilter{
		Status:   normalizeStatus(c.Query("status")),
		Category: strings.TrimSpace(c.Query("category")),
		Area:     strings.TrimSpace(c.Query("area")),
		Limit:    limit,
		Offset:   offset,
	}
	if from := c.Query("from"); from != "" {
		if ts, err := time.Parse(time.RFC3339, from); err == nil {
			filter.From = ts
		}
	}
	if to := c.Query("to"); to != "" {
		if ts, err := time.Parse(time.RFC3339, to); err == nil {
			filter.To = ts
		}
	}

	items, err := h.Store.ListTickets(c.Request.Context(), filter)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list tickets", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "limit": filter.Limit, "offset": filter.Offset})
}

func (h *Handler) TicketDetails(c *gin.Context) {
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
	c.JSON(http.StatusOK, ticket)
}

type ResolveRequest struct {
	Status     string     `json:"status" validate:"omitempty,oneof=Resolved Closed"`
	ResolvedAt *time.Time `json:"resolved_at"`
}

// @Summary Resolve ticket
// @Description Marks a ticket resolved with a real resolution timestamp
// @Tags tickets
// @Produce json
// @Param id path string true "Ticket ID"
// @Success 200 {object} map[string]any
// @Router /api/tickets/{id}/resolve [post]
func (h *Handler) ResolveTicket(c *gin.Context) {
	id := c.Param("id")
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	status := req.Status
	if status == "" {
		status = models.StatusResolved
	}
	resolvedAt := time.Now().UTC()
	if req.ResolvedAt != nil {
		resolvedAt = req.ResolvedAt.UTC()
	}

	if err := h.Store.ResolveTicket(c.Request.Context(), id, status, resolvedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Ticket not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to resolve ticket", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "resolved_at": resolvedAt})
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

func parseTicketsCSV(file *multipart.FileHeader) ([]models.Ticket, []string) {
	f, err := file.Open()
	if err != nil {
		return nil, []string{err.Error()}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	headers, err := reader.Read()
	if err != nil {
		return nil, []string{"failed to read header"}
	}
	index := headerIndex(headers)
	var errs []string
	var out []models.Ticket

	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}

		id := normalizeTrim(getFieldAny(rec, index, "id", "ticket_id", "feedback_id"))
		createdAtStr := normalizeTrim(getFieldAny(rec, index, "created_at", "timestamp", "submitted_at", "date"))
		resolvedAtStr := normalizeTrim(getFieldAny(rec, index, "resolved_at", "closed_at", "resolution_date"))
		status := normalizeStatus(getFieldAny(rec, index, "status", "state"))
		urgency := normalizeUrgency(getFieldAny(rec, index, "urgency", "priority"))
		category := normalizeTrim(getFieldAny(rec, index, "category", "type"))
		area := normalizeTrim(getFieldAny(rec, index, "area", "location", "district", "ward"))
		sentiment := normalizeSentiment(getFieldAny(rec, index, "sentiment"))
		sentimentScoreStr := normalizeTrim(getFieldAny(rec, index, "sentiment_score", "score"))
		latStr := normalizeTrim(getFieldAny(rec, index, "lat", "latitude"))
		lonStr := normalizeTrim(getFieldAny(rec, index, "lon", "lng", "longitude"))
		message := normalizeTrim(getFieldAny(rec, index, "message", "feedback", "description", "text"))

		createdAt, ok := parseTimestamp(createdAtStr)
		if !ok {
			errs = append(errs, fmt.Sprintf("line %d: unparsable created_at %q", line, createdAtStr))
			continue
		}

		t := models.Ticket{
			ID:             id,
			CreatedAt:      createdAt,
			Status:         status,
			Urgency:        urgency,
			Category:       category,
			Area:           area,
			Sentiment:      sentiment,
			SentimentScore: 0,
			Message:        message,
		}
		if t.ID == "" {
			t.ID = fmt.Sprintf("FB-%04d", len(out)+1)
		}
		if resolvedAt, ok := parseTimestamp(resolvedAtStr); ok {
			t.ResolvedAt = &resolvedAt
		} else if t.IsResolved() && resolvedAtStr == "" {
			// Resolved rows without a resolution timestamp would poison the
			// deterministic SLA metrics; treat as a data error.
			errs = append(errs, fmt.Sprintf("line %d: resolved ticket missing resolved_at", line))
			continue
		}
		if score, err := strconv.ParseFloat(sentimentScoreStr, 64); err == nil {
			t.SentimentScore = score
		}
		if lat, err := strconv.ParseFloat(latStr, 64); err == nil {
			t.Lat = &lat
		}
		if lon, err := strconv.ParseFloat(lonStr, 64); err == nil {
			t.Lon = &lon
		}
		out = append(out, t)
	}
	return out, errs
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTimestamp(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func headerIndex(headers []string) map[string]int {
	idx := map[string]int{}
	for i, h := range headers {
		idx[normalizeHeader(h)] = i
	}
	return idx
}

func getField(rec []string, idx map[string]int, name string) string {
	pos, ok := idx[name]
	if !ok || pos >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[pos])
}

func getFieldAny(rec []string, idx map[string]int, names ...string) string {
	for _, name := range names {
		if v := getField(rec, idx, normalizeHeader(name)); v != "" {
			return v
		}
	}
	return ""
}

func normalizeHeader(h string) string {
	h = strings.ReplaceAll(h, "\uFEFF", "")
	return strings.ToLower(strings.TrimSpace(h))
}

func normalizeTrim(v string) string {
	return strings.TrimSpace(v)
}

func normalizeStatus(value string) string {
	v := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(value), " ", ""))
	switch v {
	case "new", "open":
		return models.StatusNew
	case "inreview", "review", "triaged":
		return models.StatusInReview
	case "inprogress", "assigned", "working":
		return models.StatusInProgress
	case "resolved", "done", "fixed":
		return models.StatusResolved
	case "closed":
		return models.StatusClosed
	case "":
		return ""
	}
	return strings.TrimSpace(value)
}

func normalizeUrgency(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "low":
		return models.UrgencyLow
	case "medium", "normal":
		return models.UrgencyMedium
	case "high":
		return models.UrgencyHigh
	case "critical", "urgent":
		return models.UrgencyCritical
	}
	return strings.TrimSpace(value)
}

func normalizeSentiment(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "positive":
		return models.SentimentPositive
	case "neutral":
		return models.SentimentNeutral
	case "negative":
		return models.SentimentNegative
	}
	return strings.TrimSpace(value)
}

func validateExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".csv"
}
