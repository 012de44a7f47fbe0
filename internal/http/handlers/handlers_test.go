package handlers

import (
	"bytes"
	"mime/multipart"
	"testing"
)

func TestParseTicketsCSV_HeaderAliases(t *testing.T) {
	content := "ticket_id,timestamp,priority,type,district,sentiment,feedback\n" +
		"FB-1,2026-03-01T10:00:00Z,urgent,Roads & Transportation,Downtown,negative,Huge pothole on Main St\n"
	fh := makeMultipartFile(t, "tickets", "tickets.csv", content)
	tickets, errs := parseTicketsCSV(fh)
	if len(errs) > 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if len(tickets) != 1 {
		t.Fatalf("expected 1 ticket, got %d", len(tickets))
	}
	got := tickets[0]
	if got.ID != "FB-1" {
		t.Fatalf("expected id FB-1, got %q", got.ID)
	}
	if got.Urgency != "Critical" {
		t.Fatalf("expected urgency Critical, got %q", got.Urgency)
	}
	if got.Category != "Roads & Transportation" {
		t.Fatalf("expected category preserved, got %q", got.Category)
	}
	if got.Area != "Downtown" {
		t.Fatalf("expected area Downtown, got %q", got.Area)
	}
	if got.Sentiment != "Negative" {
		t.Fatalf("expected sentiment Negative, got %q", got.Sentiment)
	}
}

func TestParseTicketsCSV_SkipsUnparsableCreatedAt(t *testing.T) {
	content := "id,created_at,status,urgency,category,area\n" +
		"FB-1,not-a-date,New,Low,Noise,Eastside\n" +
		"FB-2,2026-03-02 08:30:00,New,Low,Noise,Eastside\n"
	fh := makeMultipartFile(t, "tickets", "tickets.csv", content)
	tickets, errs := parseTicketsCSV(fh)
	if len(tickets) != 1 {
		t.Fatalf("expected 1 ticket, got %d", len(tickets))
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 skipped row, got %v", errs)
	}
	if tickets[0].ID != "FB-2" {
		t.Fatalf("expected surviving ticket FB-2, got %q", tickets[0].ID)
	}
}

func TestParseTicketsCSV_ResolvedWithoutTimestampSkipped(t *testing.T) {
	content := "id,created_at,resolved_at,status,urgency,category\n" +
		"FB-1,2026-03-01T10:00:00Z,,Resolved,High,Sanitation\n" +
		"FB-2,2026-03-01T10:00:00Z,2026-03-02T09:00:00Z,Resolved,High,Sanitation\n"
	fh := makeMultipartFile(t, "tickets", "tickets.csv", content)
	tickets, errs := parseTicketsCSV(fh)
	if len(errs) != 1 {
		t.Fatalf("expected 1 data error, got %v", errs)
	}
	if len(tickets) != 1 || tickets[0].ID != "FB-2" {
		t.Fatalf("expected only FB-2 to survive, got %v", tickets)
	}
	if tickets[0].ResolvedAt == nil {
		t.Fatal("expected resolved_at to be set on FB-2")
	}
}

func TestParseTicketsCSV_GeneratesMissingIDs(t *testing.T) {
	content := "created_at,status,urgency,category\n" +
		"2026-03-01,New,Low,Noise\n"
	fh := makeMultipartFile(t, "tickets", "tickets.csv", content)
	tickets, errs := parseTicketsCSV(fh)
	if len(errs) > 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if len(tickets) != 1 || tickets[0].ID != "FB-0001" {
		t.Fatalf("expected generated id FB-0001, got %v", tickets)
	}
}

func TestParseTimestampLayouts(t *testing.T) {
	cases := []string{
		"2026-03-01T10:00:00Z",
		"2026-03-01 10:00:00",
		"2026-03-01T10:00:00",
		"2026-03-01",
	}
	for _, c := range cases {
		ts, ok := parseTimestamp(c)
		if !ok {
			t.Fatalf("expected %q to parse", c)
		}
		if ts.IsZero() {
			t.Fatalf("expected non-zero time for %q", c)
		}
	}
	if _, ok := parseTimestamp(""); ok {
		t.Fatal("expected empty string to fail")
	}
	if _, ok := parseTimestamp("03/01/2026"); ok {
		t.Fatal("expected unsupported layout to fail")
	}
}

func TestNormalizeStatus(t *testing.T) {
	cases := map[string]string{
		"open":        "New",
		"In Review":   "InReview",
		"in progress": "InProgress",
		"done":        "Resolved",
		"CLOSED":      "Closed",
		"weird":       "weird",
	}
	for in, want := range cases {
		if got := normalizeStatus(in); got != want {
			t.Fatalf("normalizeStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func makeMultipartFile(t *testing.T, fieldName, filename, content string) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(fieldName, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write content: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	reader := multipart.NewReader(&buf, writer.Boundary())
	form, err := reader.ReadForm(int64(buf.Len()))
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	files := form.File[fieldName]
	if len(files) == 0 {
		t.Fatalf("no file headers found")
	}
	return files[0]
}
