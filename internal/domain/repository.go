package domain

import "context"

// CreditRepository reads and writes the per-user credit balance. Check and
// deduct are separate round trips.
type CreditRepository interface {
	CheckCredits(ctx context.Context, userID string, needed int) (CreditStatus, error)
	DeductCredits(ctx context.Context, userID string, amount int) (int, error)
	GrantCredits(ctx context.Context, userID string, amount int) (int, error)
}

// SubmissionRepository persists final design submissions.
type SubmissionRepository interface {
	Create(ctx context.Context, s *Submission) error
	GetByID(ctx context.Context, id string) (*Submission, error)
}

// ModelJobRepository persists 3D reconstruction job state.
type ModelJobRepository interface {
	Create(ctx context.Context, job *ModelJob) error
	Update(ctx context.Context, job *ModelJob) error
	GetByTaskID(ctx context.Context, taskID string) (*ModelJob, error)
	ListPending(ctx context.Context, limit int) ([]ModelJob, error)
}

// BatchRepository stores generated candidates so later steps can look them up.
type BatchRepository interface {
	SaveBatch(ctx context.Context, batchID, userID, prompt string, candidates []Candidate) error
	// GetCandidate returns ErrNotFound unless candidateID belongs to a batch
	// generated by userID.
	GetCandidate(ctx context.Context, userID, candidateID string) (*Candidate, error)
}
