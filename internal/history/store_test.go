package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/oss-sentinel/sentinel/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "monitor.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func outcome(name string, ts time.Time, status domain.Status) *domain.ProbeOutcome {
	code := 200
	rt := 0.05
	o := &domain.ProbeOutcome{
		Timestamp:    ts,
		ServiceName:  name,
		URL:          "https://" + name + ".test",
		Status:       status,
		StatusCode:   &code,
		ResponseTime: &rt,
	}
	if status == domain.StatusFailure {
		c := 500
		o.StatusCode = &c
		o.Details = "unexpected status code 500 (expected 200)"
	}
	return o
}

func TestStore_AppendAndRecentLogsOrdering(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	base := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		o := outcome("blog", base.Add(time.Duration(i)*time.Minute), domain.StatusSuccess)
		if err := s.Append(ctx, o); err != nil {
			t.Fatalf("Append: %v", err)
		}
		if o.ID == 0 {
			t.Fatal("expected insert id to be assigned")
		}
	}

	got, err := s.RecentLogs(ctx, 2)
	if err != nil {
		t.Fatalf("RecentLogs: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 rows, got %d", len(got))
	}
	if !got[0].Timestamp.Equal(base.Add(2*time.Minute)) || !got[1].Timestamp.Equal(base.Add(1*time.Minute)) {
		t.Fatalf("wrong order: %v then %v", got[0].Timestamp, got[1].Timestamp)
	}

	// Read-only queries are idempotent: same call, same answer.
	again, err := s.RecentLogs(ctx, 2)
	if err != nil {
		t.Fatalf("RecentLogs again: %v", err)
	}
	if len(again) != 2 || again[0].ID != got[0].ID || again[1].ID != got[1].ID {
		t.Fatalf("repeated read differs: %+v vs %+v", again, got)
	}
}

func TestStore_NullableColumnsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	// Transport failure: no status code, no details beyond the error.
	o := &domain.ProbeOutcome{
		Timestamp:   time.Now().UTC(),
		ServiceName: "api",
		URL:         "https://api.test",
		Status:      domain.StatusFailure,
		Details:     "dial tcp: connection refused",
	}
	if err := s.Append(ctx, o); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := s.RecentLogs(ctx, 1)
	if err != nil {
		t.Fatalf("RecentLogs: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("want 1 row, got %d", len(got))
	}
	if got[0].StatusCode != nil || got[0].ResponseTime != nil {
		t.Fatalf("want nil optionals, got %+v", got[0])
	}
	if got[0].Details != "dial tcp: connection refused" {
		t.Fatalf("details lost: %q", got[0].Details)
	}
}

func TestStore_LatestPerService(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	base := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	appends := []struct {
		name string
		ts   time.Time
	}{
		{"alpha", base.Add(1 * time.Minute)},
		{"bravo", base.Add(2 * time.Minute)},
		{"alpha", base.Add(3 * time.Minute)},
	}
	for _, a := range appends {
		if err := s.Append(ctx, outcome(a.name, a.ts, domain.StatusSuccess)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := s.LatestPerService(ctx)
	if err != nil {
		t.Fatalf("LatestPerService: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 rows, got %d", len(got))
	}
	if got[0].ServiceName != "alpha" || got[1].ServiceName != "bravo" {
		t.Fatalf("want service-name order, got %q then %q", got[0].ServiceName, got[1].ServiceName)
	}
	if !got[0].Timestamp.Equal(base.Add(3 * time.Minute)) {
		t.Fatalf("alpha latest wrong: %v", got[0].Timestamp)
	}
	if !got[1].Timestamp.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("bravo latest wrong: %v", got[1].Timestamp)
	}
}

func TestStore_LatestPerService_EqualTimestampsLaterAppendWins(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	ts := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	first := outcome("alpha", ts, domain.StatusSuccess)
	second := outcome("alpha", ts, domain.StatusFailure)
	if err := s.Append(ctx, first); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Append(ctx, second); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := s.LatestPerService(ctx)
	if err != nil {
		t.Fatalf("LatestPerService: %v", err)
	}
	if len(got) != 1 || got[0].ID != second.ID {
		t.Fatalf("want later append (id %d) to win, got %+v", second.ID, got)
	}
}

func TestStore_RecentFailuresFilter(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	base := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	statuses := []domain.Status{
		domain.StatusSuccess,
		domain.StatusFailure,
		domain.StatusSuccess,
		domain.StatusFailure,
	}
	for i, st := range statuses {
		if err := s.Append(ctx, outcome("blog", base.Add(time.Duration(i)*time.Minute), st)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := s.RecentFailures(ctx, 10)
	if err != nil {
		t.Fatalf("RecentFailures: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 failures, got %d", len(got))
	}
	if !got[0].Timestamp.Equal(base.Add(3*time.Minute)) || !got[1].Timestamp.Equal(base.Add(1*time.Minute)) {
		t.Fatalf("wrong failure order: %v then %v", got[0].Timestamp, got[1].Timestamp)
	}
	for _, o := range got {
		if o.Status != domain.StatusFailure {
			t.Fatalf("non-failure in result: %+v", o)
		}
	}
}

func TestStore_EmptyButInitializedReturnsNoRows(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	got, err := s.RecentLogs(ctx, 5)
	if err != nil {
		t.Fatalf("RecentLogs: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("want empty result, got %d rows", len(got))
	}
}

func TestOpenRead_MissingFileIsNotInitialized(t *testing.T) {
	_, err := OpenRead(filepath.Join(t.TempDir(), "nope.db"))
	if !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("want ErrNotInitialized, got %v", err)
	}
}

func TestOpenRead_SeesWriterAppends(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "monitor.db")

	writer, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer writer.Close()
	if err := writer.Append(ctx, outcome("blog", time.Now().UTC(), domain.StatusSuccess)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	reader, err := OpenRead(path)
	if err != nil {
		t.Fatalf("OpenRead: %v", err)
	}
	defer reader.Close()

	got, err := reader.RecentLogs(ctx, 5)
	if err != nil {
		t.Fatalf("RecentLogs: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("reader should see committed append, got %d rows", len(got))
	}
}

func TestOpen_SchemaInitIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitor.db")
	for i := 0; i < 2; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open run %d: %v", i, err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("Close run %d: %v", i, err)
		}
	}
}
