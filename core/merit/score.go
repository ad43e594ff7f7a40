package merit

import (
	"fmt"

	"github.com/trezcool/meritlist/core"
)

// ScoreRecord is a single subject score of a Submission.
type ScoreRecord struct {
	Subject      string  `json:"subject"`
	Score        float64 `json:"score"`
	MaximumScore float64 `json:"maximum_score"`
	Percentage   float64 `json:"percentage"` // derived
	Grade        Grade   `json:"grade"`      // derived
}

func NewScoreRecord(subject string, score, max float64) ScoreRecord {
	rec := ScoreRecord{Subject: subject}
	rec.SetScore(score, max)
	return rec
}

// SetScore sets the score and its maximum, then derives percentage and grade.
func (r *ScoreRecord) SetScore(score, max float64) {
	r.Score = score
	r.MaximumScore = max
	r.derive()
}

func (r *ScoreRecord) derive() {
	r.Percentage = 0
	if r.Score != 0 && r.MaximumScore != 0 {
		r.Percentage = core.Round2(r.Score / r.MaximumScore * 100)
	}
	r.Grade = GradeFor(r.Percentage)
}

// Validate checks that 0 <= score <= maximum_score.
func (r ScoreRecord) Validate() error {
	if r.Score < 0 {
		return core.NewValidationError(
			fmt.Errorf("score for %s cannot be negative", r.Subject),
			core.FieldError{Field: "score", Error: "score cannot be negative"},
		)
	}
	if r.Score > r.MaximumScore {
		return core.NewValidationError(
			fmt.Errorf("score for %s cannot be greater than maximum score", r.Subject),
			core.FieldError{Field: "score", Error: "score cannot be greater than maximum score"},
		)
	}
	return nil
}
