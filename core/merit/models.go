package merit

import (
	"time"

	"github.com/trezcool/meritlist/core"
)

// ScoreInput is a subject score as provided by the client.
type ScoreInput struct {
	Subject      string  `json:"subject" validate:"required,notblank"`
	Score        float64 `json:"score"`
	MaximumScore float64 `json:"maximum_score"`
}

func (in ScoreInput) record() ScoreRecord {
	return NewScoreRecord(core.CleanString(in.Subject), in.Score, in.MaximumScore)
}

func scoreRecords(inputs []ScoreInput) []ScoreRecord {
	if inputs == nil {
		return nil
	}
	recs := make([]ScoreRecord, 0, len(inputs))
	for _, in := range inputs {
		recs = append(recs, in.record())
	}
	return recs
}

// NewSubmission contains information needed to create a new Submission.
type NewSubmission struct {
	ApplicantID          string       `json:"applicant_id" validate:"required,notblank"`
	ApplicantName        string       `json:"applicant_name" validate:"required,notblank"`
	ApplicantEmail       string       `json:"applicant_email" validate:"omitempty,email"`
	AcademicYear         string       `json:"academic_year" validate:"required,notblank"`
	Program              string       `json:"program"`
	Category             string       `json:"category"`
	Scores               []ScoreInput `json:"scores" validate:"dive"`
	TotalScore           *float64     `json:"total_merit_score"` // defaults to the sum of Scores
	MaximumPossibleScore float64      `json:"maximum_possible_score" validate:"gt=0"`
	SupportingDocuments  string       `json:"supporting_documents"`
	TeacherComments      string       `json:"teacher_comments"`
}

func (ns *NewSubmission) clean() {
	ns.ApplicantID = core.CleanString(ns.ApplicantID)
	ns.ApplicantName = core.CleanString(ns.ApplicantName)
	ns.ApplicantEmail = core.CleanString(ns.ApplicantEmail, true /* lower */)
	ns.AcademicYear = core.CleanString(ns.AcademicYear)
	ns.Program = core.CleanString(ns.Program)
	ns.Category = core.CleanString(ns.Category)
}

// UpdateSubmission defines what information may be provided to modify an existing Submission.
// Nil fields are left untouched.
type UpdateSubmission struct {
	ApplicantName              *string           `json:"applicant_name" validate:"omitempty,notblank"`
	ApplicantEmail             *string           `json:"applicant_email" validate:"omitempty,email"`
	Program                    *string           `json:"program"`
	Category                   *string           `json:"category"`
	Scores                     []ScoreInput      `json:"scores" validate:"omitempty,dive"`
	TotalScore                 *float64          `json:"total_merit_score"`
	MaximumPossibleScore       *float64          `json:"maximum_possible_score" validate:"omitempty,gt=0"`
	SubmissionStatus           *SubmissionStatus `json:"submission_status" validate:"omitempty,substatus"`
	ValidationStatus           *ValidationStatus `json:"validation_status" validate:"omitempty,valstatus"`
	DocumentVerificationStatus *DocumentStatus   `json:"document_verification_status" validate:"omitempty,docverstatus"`
	SupportingDocuments        *string           `json:"supporting_documents"`
	Remarks                    *string           `json:"admin_remarks"`
	TeacherComments            *string           `json:"teacher_comments"`
}

// apply copies the provided fields onto `s`.
func (us UpdateSubmission) apply(s *Submission) {
	if us.ApplicantName != nil {
		s.ApplicantName = core.CleanString(*us.ApplicantName)
	}
	if us.ApplicantEmail != nil {
		s.ApplicantEmail = core.CleanString(*us.ApplicantEmail, true /* lower */)
	}
	if us.Program != nil {
		s.Program = core.CleanString(*us.Program)
	}
	if us.Category != nil {
		s.Category = core.CleanString(*us.Category)
	}
	if us.Scores != nil {
		s.Scores = scoreRecords(us.Scores)
	}
	if us.TotalScore != nil {
		s.TotalScore = *us.TotalScore
	}
	if us.MaximumPossibleScore != nil {
		s.MaximumPossibleScore = *us.MaximumPossibleScore
	}
	if us.SubmissionStatus != nil {
		s.SubmissionStatus = *us.SubmissionStatus
	}
	if us.ValidationStatus != nil {
		s.ValidationStatus = *us.ValidationStatus
	}
	if us.DocumentVerificationStatus != nil {
		s.DocumentVerificationStatus = *us.DocumentVerificationStatus
	}
	if us.SupportingDocuments != nil {
		s.SupportingDocuments = *us.SupportingDocuments
	}
	if us.Remarks != nil {
		s.Remarks = *us.Remarks
	}
	if us.TeacherComments != nil {
		s.TeacherComments = *us.TeacherComments
	}
}

// Field names usable in orderings.
const (
	FieldSerial          = "serial"
	FieldCreatedAt       = "created_at"
	FieldTotalScore      = "total_merit_score"
	FieldPercentageScore = "percentage_score"
)

// SubmissionFilter applies an AND operation on its set fields.
type SubmissionFilter struct {
	ApplicantID      string
	AcademicYear     string
	Program          string
	Category         string
	MinimumScore     float64 // on total_merit_score, ignored when zero
	DocStatus        *DocStatus
	SubmissionStatus SubmissionStatus
	ValidationStatus ValidationStatus
	Limit            int
}

// ValidationFilter applies an AND operation on its set fields.
type ValidationFilter struct {
	SubmissionID  string
	DocStatus     *DocStatus
	CreatedBefore time.Time
	Limit         int
}

func DocStatusPtr(ds DocStatus) *DocStatus { return &ds }

// Scope selects the population of a ranking or merit list.
type Scope struct {
	AcademicYear   string  `json:"academic_year" validate:"required,notblank"`
	Program        string  `json:"program"`
	Category       string  `json:"category"`
	MinimumScore   float64 `json:"minimum_score" validate:"gte=0"`
	IncludePending bool    `json:"include_pending"`
	MaximumResults int     `json:"maximum_results" validate:"gte=0"`
}

func (sc Scope) filter() SubmissionFilter {
	filter := SubmissionFilter{
		AcademicYear: sc.AcademicYear,
		Program:      sc.Program,
		Category:     sc.Category,
		MinimumScore: sc.MinimumScore,
		DocStatus:    DocStatusPtr(DocCommitted),
	}
	if !sc.IncludePending {
		filter.ValidationStatus = Validated
		filter.SubmissionStatus = StatusApproved
	}
	return filter
}
