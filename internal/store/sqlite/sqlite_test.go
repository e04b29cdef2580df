package sqlite

import (
	"context"
	"errors"
	"testing"

	"designstudio/internal/domain"
)

func openTest(t *testing.T) *SQLite {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreditsCheckGrantDeduct(t *testing.T) {
	ctx := context.Background()
	credits := openTest(t).Credits()

	status, err := credits.CheckCredits(ctx, "u1", 1)
	if err != nil {
		t.Fatalf("CheckCredits error: %v", err)
	}
	if status.HasCredits || status.Balance != 0 {
		t.Fatalf("expected no credits for unknown user, got %+v", status)
	}

	if _, err := credits.GrantCredits(ctx, "u1", 2); err != nil {
		t.Fatalf("GrantCredits error: %v", err)
	}
	balance, err := credits.GrantCredits(ctx, "u1", 3)
	if err != nil || balance != 5 {
		t.Fatalf("GrantCredits = %d, %v; want 5", balance, err)
	}

	balance, err = credits.DeductCredits(ctx, "u1", 1)
	if err != nil || balance != 4 {
		t.Fatalf("DeductCredits = %d, %v; want 4", balance, err)
	}

	if _, err := credits.DeductCredits(ctx, "nobody", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreditsSet(t *testing.T) {
	ctx := context.Background()
	credits := openTest(t).Credits()
	if _, err := credits.SetCredits(ctx, "u1", -1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if got, err := credits.SetCredits(ctx, "u1", 7); err != nil || got != 7 {
		t.Fatalf("SetCredits = %d, %v", got, err)
	}
	status, _ := credits.CheckCredits(ctx, "u1", 7)
	if !status.HasCredits {
		t.Fatalf("expected balance to cover 7, got %+v", status)
	}
}

func TestSubmissionsRoundTrip(t *testing.T) {
	ctx := context.Background()
	subs := openTest(t).Submissions()

	in := &domain.Submission{
		UserID:       "u1",
		Name:         "Walnut Lounge Chair",
		Description:  "Curved walnut frame",
		Category:     "chairs",
		BasePrice:    40000,
		PriceSource:  domain.PriceQuoted,
		SellingPrice: 52000,
		LengthIn:     24, BreadthIn: 24, HeightIn: 36,
		ImageURL: "https://cdn/x.png",
		Status:   domain.SubmissionPendingReview,
	}
	if err := subs.Create(ctx, in); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	got, err := subs.GetByID(ctx, in.ID)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.Name != in.Name || got.SellingPrice != 52000 || got.ModelURL != "" || got.Status != domain.SubmissionPendingReview {
		t.Fatalf("unexpected submission %+v", got)
	}
	if got.PriceSource != domain.PriceQuoted {
		t.Fatalf("price source = %q", got.PriceSource)
	}
	if _, err := subs.GetByID(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestModelJobsLifecycle(t *testing.T) {
	ctx := context.Background()
	jobs := openTest(t).ModelJobs()

	job := &domain.ModelJob{TaskID: "t1", UserID: "u1", SourceImageURL: "https://img/1.png"}
	if err := jobs.Create(ctx, job); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if job.Status != domain.ModelJobPending {
		t.Fatalf("expected pending default, got %s", job.Status)
	}

	// Freshly created jobs are inside the lease window.
	pending, err := jobs.ListPending(ctx, 5)
	if err != nil {
		t.Fatalf("ListPending error: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no claimable jobs yet, got %d", len(pending))
	}

	job.Status = domain.ModelJobSucceeded
	job.AssetURL = "https://assets/t1.glb"
	job.Progress = 100
	job.Attempts = 4
	if err := jobs.Update(ctx, job); err != nil {
		t.Fatalf("Update error: %v", err)
	}
	got, err := jobs.GetByTaskID(ctx, "t1")
	if err != nil {
		t.Fatalf("GetByTaskID error: %v", err)
	}
	if got.Status != domain.ModelJobSucceeded || got.AssetURL != job.AssetURL || got.Attempts != 4 {
		t.Fatalf("unexpected job %+v", got)
	}

	if err := jobs.Update(ctx, &domain.ModelJob{TaskID: "missing"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBatchesSave(t *testing.T) {
	ctx := context.Background()
	batches := openTest(t).Batches()
	candidates := []domain.Candidate{
		{Index: 0, StyleHint: "minimalist", ImageURL: "a", Pricing: domain.PricingResult{Complexity: domain.ComplexityLow, PricePerCubicFoot: 9000}},
		{Index: 1, StyleHint: "industrial", ImageURL: "b"},
	}
	if err := batches.SaveBatch(ctx, "b1", "u1", "oak stool", candidates); err != nil {
		t.Fatalf("SaveBatch error: %v", err)
	}
	n, err := batches.CountCandidates(ctx, "b1")
	if err != nil || n != 2 {
		t.Fatalf("CountCandidates = %d, %v", n, err)
	}
}

func TestBatchesGetCandidateScopedToOwner(t *testing.T) {
	ctx := context.Background()
	batches := openTest(t).Batches()
	candidates := []domain.Candidate{
		{Index: 0, StyleHint: "minimalist", ImageURL: "a", Pricing: domain.PricingResult{Complexity: domain.ComplexityLow, PricePerCubicFoot: 9000}},
	}
	if err := batches.SaveBatch(ctx, "b1", "u1", "oak stool", candidates); err != nil {
		t.Fatalf("SaveBatch error: %v", err)
	}

	got, err := batches.GetCandidate(ctx, "u1", candidates[0].ID)
	if err != nil {
		t.Fatalf("GetCandidate error: %v", err)
	}
	if got.ImageURL != "a" || got.StyleHint != "minimalist" || got.Pricing.PricePerCubicFoot != 9000 {
		t.Fatalf("unexpected candidate: %+v", got)
	}
	if _, err := batches.GetCandidate(ctx, "u2", candidates[0].ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("other owner: expected ErrNotFound, got %v", err)
	}
	if _, err := batches.GetCandidate(ctx, "u1", "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing: expected ErrNotFound, got %v", err)
	}
}

func TestUsageRecord(t *testing.T) {
	usage := openTest(t).Usage()
	err := usage.Record(context.Background(), domain.UsageEvent{
		UserID:     "u1",
		EventType:  domain.UsageGenerateBatch,
		Success:    true,
		LatencyMS:  1200,
		Properties: map[string]any{"variations": 3},
	})
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}
}
