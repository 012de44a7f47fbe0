package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civicpulse/backend/internal/models"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

// EnsureSchema creates the tables on startup so a fresh database works
// without a separate migration step.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tickets (
	id              TEXT PRIMARY KEY,
	created_at      TIMESTAMPTZ NOT NULL,
	resolved_at     TIMESTAMPTZ,
	status          TEXT NOT NULL DEFAULT 'New',
	urgency         TEXT NOT NULL DEFAULT 'Medium',
	category        TEXT NOT NULL DEFAULT '',
	area            TEXT NOT NULL DEFAULT '',
	lat             DOUBLE PRECISION,
	lon             DOUBLE PRECISION,
	sentiment       TEXT NOT NULL DEFAULT '',
	sentiment_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	message         TEXT NOT NULL DEFAULT '',
	raw_json        JSONB
);
CREATE INDEX IF NOT EXISTS tickets_created_at_idx ON tickets (created_at);
CREATE INDEX IF NOT EXISTS tickets_status_idx ON tickets (status);

CREATE TABLE IF NOT EXISTS analytics_runs (
	id          TEXT PRIMARY KEY,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ,
	status      TEXT NOT NULL,
	summary     JSONB
);`)
	return err
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const ticketColumns = `id, created_at, resolved_at, status, urgency, category, area, lat, lon, sentiment, sentiment_score, message, raw_json`

func scanTicket(row pgx.Row) (models.Ticket, error) {
	var t models.Ticket
	err := row.Scan(&t.ID, &t.CreatedAt, &t.ResolvedAt, &t.Status, &t.Urgency, &t.Category,
		&t.Area, &t.Lat, &t.Lon, &t.Sentiment, &t.SentimentScore, &t.Message, &t.RawJSON)
	return t, err
}

func (s *Store) InsertTickets(ctx context.Context, tickets []models.Ticket) (int64, error) {
	rows := make([][]any, 0, len(tickets))
	for _, t := range tickets {
		rows = append(rows, []any{t.ID, t.CreatedAt, t.ResolvedAt, t.Status, t.Urgency, t.Category,
			t.Area, t.Lat, t.Lon, t.Sentiment, t.SentimentScore, t.Message, t.RawJSON})
	}
	copyCount, err := s.Pool.CopyFrom(ctx, pgx.Identifier{"tickets"},
		[]string{"id", "created_at", "resolved_at", "status", "urgency", "category",
			"area", "lat", "lon", "sentiment", "sentiment_score", "message", "raw_json"},
		pgx.CopyFromRows(rows))
	return copyCount, err
}

// TicketFilter narrows ListTickets. Zero values mean no constraint.
type TicketFilter struct {
	Status   string
	Category string
	Area     string
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}

func (s *Store) ListTickets(ctx context.Context, f TicketFilter) ([]models.Ticket, error) {
	if f.Limit <= 0 || f.Limit > 1000 {
		f.Limit = 200
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	query := `SELECT ` + ticketColumns + ` FROM tickets`
	var args []any
	var wheres []string
	if f.Status != "" {
		args = append(args, f.Status)
		wheres = append(wheres, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		wheres = append(wheres, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.Area != "" {
		args = append(args, f.Area)
		wheres = append(wheres, fmt.Sprintf("area = $%d", len(args)))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		wheres = append(wheres, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		wheres = append(wheres, fmt.Sprintf("created_at < $%d", len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// AllTickets returns the full snapshot the analytics engine runs over.
func (s *Store) AllTickets(ctx context.Context) ([]models.Ticket, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+ticketColumns+` FROM tickets ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) GetTicket(ctx context.Context, id string) (models.Ticket, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id)
	return scanTicket(row)
}

// ResolveTicket marks a ticket resolved with the real resolution timestamp,
// which feeds the deterministic SLA compliance metrics.
func (s *Store) ResolveTicket(ctx context.Context, id string, status string, resolvedAt time.Time) error {
	if status != models.StatusResolved && status != models.StatusClosed {
		status = models.StatusResolved
	}
	tag, err := s.Pool.Exec(ctx,
		`UPDATE tickets SET status = $1, resolved_at = $2 WHERE id = $3`,
		status, resolvedAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) TruncateTickets(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx, `TRUNCATE tickets`)
	return err
}

func (s *Store) CreateRun(ctx context.Context, id string, status string) error {
	_, err := s.Pool.Exec(ctx, `INSERT INTO analytics_runs (id, status, started_at) VALUES ($1, $2, NOW())`, id, status)
	return err
}

func (s *Store) FinishRun(ctx context.Context, runID string, status string, summary []byte) error {
	_, err := s.Pool.Exec(ctx, `UPDATE analytics_runs SET status = $1, summary = $2, finished_at = NOW() WHERE id = $3`, status, summary, runID)
	return err
}

func (s *Store) GetLatestRun(ctx context.Context) (models.Run, error) {
	row := s.Pool.QueryRow(ctx, `SELECT id, started_at, finished_at, status, summary FROM analytics_runs ORDER BY started_at DESC LIMIT 1`)
	var r models.Run
	if err := row.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Status, &r.Summary); err != nil {
		return models.Run{}, err
	}
	return r, nil
}
