package merit

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/meritlist/core"
)

type Decision string

const (
	DecisionPending  Decision = "Pending"
	DecisionApproved Decision = "Approved"
	DecisionRejected Decision = "Rejected"
)

const defaultRejectionReason = "Merit submission rejected during validation"

// Validation is a validator's review of a committed Submission.
type Validation struct {
	ID                   string    `json:"id"`
	SubmissionID         string    `json:"merit_submission"`
	ApplicantName        string    `json:"applicant_name"`
	Validator            string    `json:"validator"`
	ValidatorEmail       string    `json:"validator_email"`
	OriginalTotalScore   float64   `json:"original_total_score"`
	OriginalPercentage   float64   `json:"original_percentage"`
	VerifiedTotalScore   float64   `json:"verified_total_score"`
	VerifiedPercentage   float64   `json:"verified_percentage"`   // derived
	ScoreDifference      float64   `json:"score_difference"`      // derived
	PercentageDifference float64   `json:"percentage_difference"` // derived
	ValidationComments   string    `json:"validation_comments"`
	FinalDecision        Decision  `json:"final_decision"`
	DocStatus            DocStatus `json:"docstatus"`
	ValidationDate       time.Time `json:"validation_date"` // UTC
	CreatedAt            time.Time `json:"created_at"`      // UTC
	UpdatedAt            time.Time `json:"updated_at"`      // UTC
}

func (v Validation) IsFinalized() bool { return v.DocStatus == DocCommitted }

// Recompute derives the verified percentage and the differences with the original scores.
// The verified percentage is left untouched when `maximum` is zero.
func (v *Validation) Recompute(maximum float64) {
	if maximum != 0 {
		v.VerifiedPercentage = core.Round2(v.VerifiedTotalScore / maximum * 100)
	}
	v.ScoreDifference = core.Round2(v.VerifiedTotalScore - v.OriginalTotalScore)
	v.PercentageDifference = core.Round2(v.VerifiedPercentage - v.OriginalPercentage)
}

// UpdateValidation defines what may be changed on an open Validation.
type UpdateValidation struct {
	VerifiedTotalScore *float64 `json:"verified_total_score" validate:"omitempty,gte=0"`
	ValidationComments *string  `json:"validation_comments"`
}

// FinalizeValidation carries the final decision of a Validation.
type FinalizeValidation struct {
	Decision Decision `json:"final_decision" validate:"required,decision"`
	Comments string   `json:"validation_comments"`
}

// checkVerifiedTotal reports whether the verified total can replace the total of `s`.
// A submission scored by subject keeps the sum of its subject scores as its total.
func (v Validation) checkVerifiedTotal(s Submission) error {
	var msg string
	switch {
	case v.VerifiedTotalScore > s.MaximumPossibleScore:
		msg = "verified total score cannot be greater than maximum possible score"
	case len(s.Scores) > 0 && !s.matchesScoresSum(v.VerifiedTotalScore):
		msg = fmt.Sprintf("verified total score (%g) does not match the sum of subject scores (%g), correct the subject scores instead",
			v.VerifiedTotalScore, s.ScoresSum())
	default:
		return nil
	}
	return core.NewValidationError(errors.New(msg), core.FieldError{Field: "verified_total_score", Error: msg})
}

// applyDecision writes the decision of `v` into `s`.
func (v Validation) applyDecision(s *Submission, now time.Time) {
	switch v.FinalDecision {
	case DecisionApproved:
		if v.VerifiedTotalScore != s.TotalScore {
			s.TotalScore = v.VerifiedTotalScore
			s.PercentageScore = v.VerifiedPercentage
		}
		s.Approve(v.Validator, now)
		if v.ValidationComments != "" {
			s.Remarks = v.ValidationComments
		}
	case DecisionRejected:
		reason := v.ValidationComments
		if reason == "" {
			reason = defaultRejectionReason
		}
		s.Reject(reason)
	}
}
