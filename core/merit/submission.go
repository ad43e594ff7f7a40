package merit

import (
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/meritlist/core"
)

const (
	// DefaultCategory groups submissions without a category.
	DefaultCategory = "General"

	scoreSumTolerance = 0.01
	floatEpsilon      = 1e-9 // absorbs float noise at the tolerance
)

type SubmissionStatus string

const (
	StatusDraft       SubmissionStatus = "Draft"
	StatusSubmitted   SubmissionStatus = "Submitted"
	StatusUnderReview SubmissionStatus = "Under Review"
	StatusApproved    SubmissionStatus = "Approved"
	StatusRejected    SubmissionStatus = "Rejected"
)

type ValidationStatus string

const (
	ValidationPending  ValidationStatus = "Pending"
	Validated          ValidationStatus = "Validated"
	ValidationRejected ValidationStatus = "Rejected"
)

type DocumentStatus string

const (
	DocumentPending     DocumentStatus = "Pending"
	DocumentUnderReview DocumentStatus = "Under Review"
	DocumentVerified    DocumentStatus = "Verified"
	DocumentRejected    DocumentStatus = "Rejected"
)

// DocStatus is the commit state of a record.
type DocStatus int

const (
	DocDraft     DocStatus = 0
	DocCommitted DocStatus = 1
	DocCancelled DocStatus = 2
)

var (
	allSubmissionStatuses = []SubmissionStatus{StatusDraft, StatusSubmitted, StatusUnderReview, StatusApproved, StatusRejected}
	allValidationStatuses = []ValidationStatus{ValidationPending, Validated, ValidationRejected}
	allDocumentStatuses   = []DocumentStatus{DocumentPending, DocumentUnderReview, DocumentVerified, DocumentRejected}

	// fields that may still change once a submission is validated
	postValidationFields = map[string]bool{
		"admin_remarks":                true,
		"teacher_comments":             true,
		"validation_status":            true,
		"validated_by":                 true,
		"validation_date":              true,
		"document_verification_status": true,
	}

	// lifecycleFields are moved by the workflow itself, eg. when a validated submission is cancelled.
	lifecycleFields = map[string]bool{
		"submission_status": true,
		"docstatus":         true,
	}
)

// Submission is an applicant's scored merit record.
type Submission struct {
	ID                         string           `json:"id"`
	Serial                     int64            `json:"serial"` // creation order
	ApplicantID                string           `json:"applicant_id"`
	ApplicantName              string           `json:"applicant_name"`
	ApplicantEmail             string           `json:"applicant_email"`
	AcademicYear               string           `json:"academic_year"`
	Program                    string           `json:"program"`
	Category                   string           `json:"category"`
	Scores                     []ScoreRecord    `json:"scores"`
	TotalScore                 float64          `json:"total_merit_score"`
	MaximumPossibleScore       float64          `json:"maximum_possible_score"`
	PercentageScore            float64          `json:"percentage_score"` // derived
	Grade                      Grade            `json:"merit_grade"`      // derived
	SubmissionStatus           SubmissionStatus `json:"submission_status"`
	ValidationStatus           ValidationStatus `json:"validation_status"`
	DocumentVerificationStatus DocumentStatus   `json:"document_verification_status"`
	SupportingDocuments        string           `json:"supporting_documents"`
	ValidatedBy                string           `json:"validated_by"`
	ValidationDate             time.Time        `json:"validation_date"` // UTC
	MeritRank                  int              `json:"merit_rank"`
	CategoryRank               int              `json:"category_rank"`
	Remarks                    string           `json:"admin_remarks"`
	TeacherComments            string           `json:"teacher_comments"`
	DocStatus                  DocStatus        `json:"docstatus"`
	SubmissionDate             time.Time        `json:"submission_date"` // UTC
	CreatedAt                  time.Time        `json:"created_at"`      // UTC
	UpdatedAt                  time.Time        `json:"updated_at"`      // UTC
}

// Clone returns a copy of `s` that does not share its Scores.
func (s Submission) Clone() Submission {
	if s.Scores != nil {
		scores := make([]ScoreRecord, len(s.Scores))
		copy(scores, s.Scores)
		s.Scores = scores
	}
	return s
}

func (s Submission) IsCommitted() bool { return s.DocStatus == DocCommitted }

// CategoryOrDefault returns the category used for ranking and reporting.
func (s Submission) CategoryOrDefault() string {
	if s.Category == "" {
		return DefaultCategory
	}
	return s.Category
}

// ScoresSum returns the sum of the subject scores.
func (s Submission) ScoresSum() float64 {
	var sum float64
	for _, rec := range s.Scores {
		sum += rec.Score
	}
	return sum
}

// FinalizePercentageAndGrade derives percentage_score and merit_grade from the totals.
// It also refreshes the derived fields of every ScoreRecord.
func (s *Submission) FinalizePercentageAndGrade() {
	for i := range s.Scores {
		s.Scores[i].derive()
	}
	if s.TotalScore != 0 && s.MaximumPossibleScore != 0 {
		s.PercentageScore = core.Round2(s.TotalScore / s.MaximumPossibleScore * 100)
	} else {
		s.PercentageScore = 0
	}
	s.Grade = GradeFor(s.PercentageScore)
}

// ValidateScoreConsistency checks the score invariants of the submission.
func (s Submission) ValidateScoreConsistency() error {
	for _, rec := range s.Scores {
		if err := rec.Validate(); err != nil {
			return err
		}
	}
	if s.TotalScore < 0 {
		return core.NewValidationError(
			errors.New("total merit score cannot be negative"),
			core.FieldError{Field: "total_merit_score", Error: "total merit score cannot be negative"},
		)
	}
	if s.TotalScore > s.MaximumPossibleScore {
		return core.NewValidationError(
			errors.New("total merit score cannot be greater than maximum possible score"),
			core.FieldError{Field: "total_merit_score", Error: "total merit score cannot be greater than maximum possible score"},
		)
	}
	if len(s.Scores) > 0 {
		if !s.matchesScoresSum(s.TotalScore) {
			msg := fmt.Sprintf("sum of subject scores (%g) does not match total merit score (%g)", s.ScoresSum(), s.TotalScore)
			return core.NewValidationError(
				errors.New(msg),
				core.FieldError{Field: "total_merit_score", Error: msg},
			)
		}
	}
	return nil
}

// matchesScoresSum reports whether `total` is within 0.01 (inclusive) of the sum of the subject scores.
func (s Submission) matchesScoresSum(total float64) bool {
	return math.Abs(s.ScoresSum()-total) <= scoreSumTolerance+floatEpsilon
}

// WriteMode describes who is writing a submission.
type WriteMode struct {
	// Elevated is set when the actor may change locked status fields.
	Elevated bool
	// System is set by the validation workflow and the ranking engine only.
	System bool
	// AllowModification mirrors the allow_score_modification_after_validation setting.
	AllowModification bool
}

// EnforceFieldLock rejects the changes between `orig` and `s` that `mode` does not allow.
func (s Submission) EnforceFieldLock(orig Submission, mode WriteMode) error {
	if orig.DocStatus == DocCommitted && !(mode.Elevated || mode.System) {
		if s.DocumentVerificationStatus != orig.DocumentVerificationStatus {
			return core.NewPermissionError("document_verification_status",
				"document verification status cannot be changed after submission, only authorized users can update it")
		}
		if s.ValidationStatus != orig.ValidationStatus {
			return core.NewPermissionError("validation_status",
				"validation status cannot be changed after submission, only authorized users can update it")
		}
		if s.SubmissionStatus != orig.SubmissionStatus {
			return core.NewPermissionError("submission_status",
				"submission status cannot be changed after submission, only the validation workflow can update it")
		}
	}

	if orig.ValidationStatus == Validated && s.ValidationStatus == Validated && !mode.AllowModification {
		for _, field := range s.changedFields(orig) {
			if !postValidationFields[field] && !(mode.System && lifecycleFields[field]) {
				return core.NewPermissionError(field, fmt.Sprintf(
					"cannot modify '%s' after validation, enable 'allow_score_modification_after_validation' to allow changes", field))
			}
		}
	}
	return nil
}

// changedFields lists the JSON names of the fields that differ from `orig`.
func (s Submission) changedFields(orig Submission) []string {
	var fields []string
	add := func(changed bool, name string) {
		if changed {
			fields = append(fields, name)
		}
	}
	add(s.ApplicantID != orig.ApplicantID, "applicant_id")
	add(s.ApplicantName != orig.ApplicantName, "applicant_name")
	add(s.ApplicantEmail != orig.ApplicantEmail, "applicant_email")
	add(s.AcademicYear != orig.AcademicYear, "academic_year")
	add(s.Program != orig.Program, "program")
	add(s.Category != orig.Category, "category")
	add(!scoresEqual(s.Scores, orig.Scores), "scores")
	add(s.TotalScore != orig.TotalScore, "total_merit_score")
	add(s.MaximumPossibleScore != orig.MaximumPossibleScore, "maximum_possible_score")
	add(s.PercentageScore != orig.PercentageScore, "percentage_score")
	add(s.Grade != orig.Grade, "merit_grade")
	add(s.SubmissionStatus != orig.SubmissionStatus, "submission_status")
	add(s.ValidationStatus != orig.ValidationStatus, "validation_status")
	add(s.DocumentVerificationStatus != orig.DocumentVerificationStatus, "document_verification_status")
	add(s.SupportingDocuments != orig.SupportingDocuments, "supporting_documents")
	add(s.ValidatedBy != orig.ValidatedBy, "validated_by")
	add(!s.ValidationDate.Equal(orig.ValidationDate), "validation_date")
	add(s.MeritRank != orig.MeritRank, "merit_rank")
	add(s.CategoryRank != orig.CategoryRank, "category_rank")
	add(s.Remarks != orig.Remarks, "admin_remarks")
	add(s.TeacherComments != orig.TeacherComments, "teacher_comments")
	add(s.DocStatus != orig.DocStatus, "docstatus")
	add(!s.SubmissionDate.Equal(orig.SubmissionDate), "submission_date")
	return fields
}

func scoresEqual(a, b []ScoreRecord) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Approve marks the submission as validated by `validator`.
func (s *Submission) Approve(validator string, now time.Time) {
	s.ValidationStatus = Validated
	s.ValidatedBy = validator
	s.ValidationDate = now.UTC()
	s.DocumentVerificationStatus = DocumentVerified
	s.SubmissionStatus = StatusApproved
}

// Reject marks the submission as rejected; `reason` replaces the remarks when given.
func (s *Submission) Reject(reason string) {
	s.ValidationStatus = ValidationRejected
	s.SubmissionStatus = StatusRejected
	if reason != "" {
		s.Remarks = reason
	}
}

// onFinalize commits the submission.
func (s *Submission) onFinalize(now time.Time) {
	s.DocStatus = DocCommitted
	s.SubmissionStatus = StatusSubmitted
	if s.SubmissionDate.IsZero() {
		s.SubmissionDate = now.UTC()
	}
}

// onCancel cancels the commit and sends the submission back to Draft.
func (s *Submission) onCancel() {
	s.DocStatus = DocCancelled
	s.SubmissionStatus = StatusDraft
}

// onReviewStarted is applied when a validation is opened against the submission.
func (s *Submission) onReviewStarted() {
	if s.SubmissionStatus == StatusSubmitted {
		s.SubmissionStatus = StatusUnderReview
	}
	if s.SupportingDocuments != "" && s.DocumentVerificationStatus == DocumentPending {
		s.DocumentVerificationStatus = DocumentUnderReview
	}
}
