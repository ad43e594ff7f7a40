package merit

import (
	"context"
	"errors"

	"github.com/trezcool/meritlist/core"
)

var (
	// errors
	ErrSubmissionNotFound = errors.New("merit submission not found")
	ErrValidationNotFound = errors.New("merit validation not found")
	ErrValidationExists   = errors.New("a merit validation already exists for this submission")
)

// RankUpdate carries the ranks computed for one submission.
type RankUpdate struct {
	SubmissionID string
	MeritRank    int
	CategoryRank int
}

// Repository is the document store of submissions and validations.
type Repository interface {
	// CreateSubmission stores `s` and returns it with its ID and Serial set.
	CreateSubmission(ctx context.Context, s Submission) (Submission, error)
	GetSubmission(ctx context.Context, id string) (Submission, error)
	UpdateSubmission(ctx context.Context, s Submission) (Submission, error)
	DeleteSubmission(ctx context.Context, id string) error
	QuerySubmissions(ctx context.Context, filter SubmissionFilter, ordering ...core.DBOrdering) ([]Submission, error)
	CountSubmissions(ctx context.Context, filter SubmissionFilter) (int, error)
	// SetRanks writes merit_rank and category_rank only.
	SetRanks(ctx context.Context, ranks []RankUpdate) error
	// SetDocumentVerification writes document_verification_status only.
	SetDocumentVerification(ctx context.Context, id string, status DocumentStatus) error

	// CreateValidation stores `v` and returns it with its ID set.
	// There is at most one validation per submission: ErrValidationExists otherwise.
	CreateValidation(ctx context.Context, v Validation) (Validation, error)
	GetValidation(ctx context.Context, id string) (Validation, error)
	// GetValidationBySubmission returns ErrValidationNotFound when the submission has none.
	GetValidationBySubmission(ctx context.Context, submissionID string) (Validation, error)
	UpdateValidation(ctx context.Context, v Validation) (Validation, error)
	// DeleteValidations deletes the validations matching `filter` and returns how many were deleted.
	DeleteValidations(ctx context.Context, filter ValidationFilter) (int, error)
	QueryValidations(ctx context.Context, filter ValidationFilter, ordering ...core.DBOrdering) ([]Validation, error)

	// RunInTx runs `fn` against a transactional view of the store.
	// All writes made through `repo` are committed when `fn` returns nil and discarded otherwise.
	RunInTx(ctx context.Context, fn func(repo Repository) error) error
}
