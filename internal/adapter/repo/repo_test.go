package repo

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"designstudio/internal/domain"
	"designstudio/internal/sqlinline"
)

type call struct {
	query string
	args  []any
}

type fakeDB struct {
	execs   []call
	rows    []call
	row     func(query string, args []any) pgx.Row
	rowsFor func(query string, args []any) (pgx.Rows, error)
	execErr error
}

func (f *fakeDB) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, call{query: query, args: args})
	return pgconn.CommandTag{}, f.execErr
}

func (f *fakeDB) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	f.rows = append(f.rows, call{query: query, args: args})
	if f.row == nil {
		return simpleRow{}
	}
	return f.row(query, args)
}

func (f *fakeDB) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	f.rows = append(f.rows, call{query: query, args: args})
	if f.rowsFor == nil {
		return nil, errors.New("not implemented")
	}
	return f.rowsFor(query, args)
}

type simpleRow struct {
	scan func(dest ...any) error
}

func (r simpleRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

func valuesRow(vals ...any) simpleRow {
	return simpleRow{scan: func(dest ...any) error { return assign(dest, vals) }}
}

func assign(dest []any, vals []any) error {
	if len(dest) != len(vals) {
		return errors.New("column count mismatch")
	}
	for i := range dest {
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(vals[i]))
	}
	return nil
}

type sliceRows struct {
	data [][]any
	pos  int
}

func (r *sliceRows) Close()                                       {}
func (r *sliceRows) Err() error                                   { return nil }
func (r *sliceRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *sliceRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *sliceRows) Values() ([]any, error)                       { return nil, errors.New("unsupported") }
func (r *sliceRows) RawValues() [][]byte                          { return nil }
func (r *sliceRows) Conn() *pgx.Conn                              { return nil }

func (r *sliceRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *sliceRows) Scan(dest ...any) error {
	return assign(dest, r.data[r.pos-1])
}

func TestCreditRepositoryCheck(t *testing.T) {
	db := &fakeDB{row: func(query string, args []any) pgx.Row { return valuesRow(0, false) }}
	repo := NewCreditRepository(db)

	status, err := repo.CheckCredits(context.Background(), "u1", 1)
	if err != nil {
		t.Fatalf("CheckCredits error: %v", err)
	}
	if status.HasCredits || status.Balance != 0 || status.CreditsNeeded != 1 {
		t.Fatalf("unexpected status %+v", status)
	}
	if db.rows[0].query != sqlinline.QCheckCredits {
		t.Fatalf("unexpected query")
	}
}

func TestCreditRepositoryDeductMissingRow(t *testing.T) {
	repo := NewCreditRepository(&fakeDB{})
	if _, err := repo.DeductCredits(context.Background(), "u1", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreditRepositoryGrantRejectsNonPositive(t *testing.T) {
	db := &fakeDB{}
	repo := NewCreditRepository(db)
	if _, err := repo.GrantCredits(context.Background(), "u1", 0); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(db.rows) != 0 {
		t.Fatalf("expected no queries, got %d", len(db.rows))
	}
}

func TestSubmissionRepositoryCreateAssignsID(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	db := &fakeDB{row: func(query string, args []any) pgx.Row { return valuesRow(created) }}
	repo := NewSubmissionRepository(db)

	sub := &domain.Submission{UserID: "u1", Name: "Arc Chair", Status: domain.SubmissionPendingReview, PriceSource: domain.PriceQuoted}
	if err := repo.Create(context.Background(), sub); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if sub.ID == "" {
		t.Fatal("expected generated id")
	}
	if !sub.CreatedAt.Equal(created) {
		t.Fatalf("expected created_at %v, got %v", created, sub.CreatedAt)
	}
	args := db.rows[0].args
	if len(args) != 14 {
		t.Fatalf("expected 14 args, got %d", len(args))
	}
	if args[12] != "pending_review" {
		t.Fatalf("expected status argument, got %v", args[12])
	}
	if args[13] != "quoted" {
		t.Fatalf("expected price source argument, got %v", args[13])
	}
}

func TestSubmissionRepositoryGetByIDRejectsMalformed(t *testing.T) {
	db := &fakeDB{}
	repo := NewSubmissionRepository(db)
	if _, err := repo.GetByID(context.Background(), "not-a-uuid"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(db.rows) != 0 {
		t.Fatal("malformed id should not reach the database")
	}
}

func TestModelJobRepositoryListPending(t *testing.T) {
	now := time.Now()
	db := &fakeDB{rowsFor: func(query string, args []any) (pgx.Rows, error) {
		if query != sqlinline.QClaimPendingModelJobs {
			t.Fatalf("unexpected query %q", query)
		}
		return &sliceRows{data: [][]any{
			{"task-1", "u1", "https://img/1.png", "pending", 10, "", 3, "", now, now},
			{"task-2", "u2", "https://img/2.png", "pending", 0, "", 0, "", now, now},
		}}, nil
	}}
	repo := NewModelJobRepository(db)

	jobs, err := repo.ListPending(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListPending error: %v", err)
	}
	if len(jobs) != 2 || jobs[0].TaskID != "task-1" || jobs[0].Status != domain.ModelJobPending || jobs[0].Attempts != 3 {
		t.Fatalf("unexpected jobs %+v", jobs)
	}
	if db.rows[0].args[0] != 10 {
		t.Fatalf("expected default limit 10, got %v", db.rows[0].args[0])
	}
}

func TestModelJobRepositoryUpdateMissing(t *testing.T) {
	repo := NewModelJobRepository(&fakeDB{})
	err := repo.Update(context.Background(), &domain.ModelJob{TaskID: "gone", Status: domain.ModelJobFailed})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBatchRepositorySaveBatch(t *testing.T) {
	db := &fakeDB{}
	repo := NewBatchRepository(db)
	candidates := []domain.Candidate{
		{Index: 0, StyleHint: "modern", ImageURL: "a"},
		{Index: 1, StyleHint: "rustic", ImageURL: "b"},
	}
	if err := repo.SaveBatch(context.Background(), "b1", "u1", "oak chair", candidates); err != nil {
		t.Fatalf("SaveBatch error: %v", err)
	}
	if len(db.execs) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(db.execs))
	}
	if candidates[1].ID == "" {
		t.Fatal("expected candidate ids to be assigned")
	}
	if !strings.Contains(string(db.execs[1].args[5].([]byte)), `"complexity"`) {
		t.Fatalf("expected pricing json, got %s", db.execs[1].args[5])
	}
}

func TestBatchRepositoryGetCandidate(t *testing.T) {
	id := "8d3f2c1e-4b5a-4c6d-9e7f-0a1b2c3d4e5f"
	db := &fakeDB{row: func(query string, args []any) pgx.Row {
		if args[1] != "u1" {
			return simpleRow{}
		}
		return valuesRow(id, 2, "rustic", "https://img.test/c.png", []byte(`{"complexity":"low","price_per_cubic_foot":9000}`))
	}}
	repo := NewBatchRepository(db)

	got, err := repo.GetCandidate(context.Background(), "u1", id)
	if err != nil {
		t.Fatalf("GetCandidate error: %v", err)
	}
	if got.Index != 2 || got.ImageURL != "https://img.test/c.png" || got.Pricing.Complexity != domain.ComplexityLow {
		t.Fatalf("unexpected candidate: %+v", got)
	}
	if !strings.Contains(db.rows[0].query, "b.user_id = $2::uuid") {
		t.Fatalf("query not scoped to owner: %s", db.rows[0].query)
	}

	if _, err := repo.GetCandidate(context.Background(), "u2", id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("other owner: expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetCandidate(context.Background(), "u1", "forged"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("non-uuid id: expected ErrNotFound, got %v", err)
	}
	if len(db.rows) != 2 {
		t.Fatalf("non-uuid id must not reach the database, queries=%d", len(db.rows))
	}
}

func TestUsageRepositoryPassesRequestID(t *testing.T) {
	db := &fakeDB{}
	repo := NewUsageRepository(db)
	err := repo.Record(context.Background(), domain.UsageEvent{UserID: "u1", RequestID: " req-abc ", EventType: domain.UsageRecolor, Success: true})
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if db.execs[0].args[1] != "req-abc" {
		t.Fatalf("expected trimmed request id, got %v", db.execs[0].args[1])
	}
	if db.execs[0].args[5] != nil && len(db.execs[0].args[5].([]byte)) != 0 {
		t.Fatalf("expected no properties, got %s", db.execs[0].args[5])
	}
}
