package merit_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/meritlist/core"
	"github.com/trezcool/meritlist/core/merit"
	"github.com/trezcool/meritlist/core/settings"
	"github.com/trezcool/meritlist/core/user"
	"github.com/trezcool/meritlist/tests"
)

const year = "2024-2025"

var ctx = context.Background()

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func valStatus(s merit.ValidationStatus) *merit.ValidationStatus { return &s }

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	switch e := errors.Cause(err).(type) {
	case *core.PermissionError:
		return e.Field
	case *core.ValidationError:
		require.NotEmpty(t, e.Fields)
		return e.Fields[0].Field
	}
	t.Fatalf("unexpected error %T: %v", err, err)
	return ""
}

func TestService_CreateSubmission(t *testing.T) {
	env := testutil.NewEnv(t)

	ns := merit.NewSubmission{
		ApplicantID:          " APP-001 ",
		ApplicantName:        "Jane Doe",
		ApplicantEmail:       "Jane@Test.cd",
		AcademicYear:         year,
		Program:              "BSc",
		Scores:               testutil.Scores("Math", 40, 50, "Physics", 45.5, 50),
		MaximumPossibleScore: 100,
	}
	s, err := env.Svc.CreateSubmission(ctx, ns)
	require.NoError(t, err)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, int64(1), s.Serial)
	assert.Equal(t, "APP-001", s.ApplicantID)
	assert.Equal(t, "jane@test.cd", s.ApplicantEmail)
	assert.Equal(t, 85.5, s.TotalScore)
	assert.Equal(t, 85.5, s.PercentageScore)
	assert.Equal(t, merit.GradeBPlus, s.Grade)
	assert.Equal(t, merit.GradeA, s.Scores[1].Grade)
	assert.Equal(t, merit.StatusDraft, s.SubmissionStatus)
	assert.Equal(t, merit.ValidationPending, s.ValidationStatus)
	assert.Equal(t, merit.DocumentPending, s.DocumentVerificationStatus)
	assert.Equal(t, merit.DocDraft, s.DocStatus)

	got, err := env.Svc.GetSubmission(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestService_CreateSubmission_invalid(t *testing.T) {
	env := testutil.NewEnv(t)

	tests := []struct {
		name      string
		change    func(ns *merit.NewSubmission)
		wantField string
	}{
		{name: "missing applicant", change: func(ns *merit.NewSubmission) { ns.ApplicantID = "  " }, wantField: "applicant_id"},
		{name: "missing year", change: func(ns *merit.NewSubmission) { ns.AcademicYear = "" }, wantField: "academic_year"},
		{name: "bad email", change: func(ns *merit.NewSubmission) { ns.ApplicantEmail = "nope" }, wantField: "applicant_email"},
		{name: "zero maximum", change: func(ns *merit.NewSubmission) { ns.MaximumPossibleScore = 0 }, wantField: "maximum_possible_score"},
		{name: "total above maximum", change: func(ns *merit.NewSubmission) { ns.TotalScore = floatPtr(120) }, wantField: "total_merit_score"},
		{
			name: "sum mismatch",
			change: func(ns *merit.NewSubmission) {
				ns.Scores = testutil.Scores("Math", 40, 50)
				ns.TotalScore = floatPtr(45)
			},
			wantField: "total_merit_score",
		},
		{
			name:      "subject above its maximum",
			change:    func(ns *merit.NewSubmission) { ns.Scores = testutil.Scores("Math", 60, 50); ns.TotalScore = nil },
			wantField: "score",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns := testutil.NewSubmission("app-1", "Jane", year, 80, 100)
			tt.change(&ns)
			_, err := env.Svc.CreateSubmission(ctx, ns)
			require.Error(t, err)
			assert.True(t, core.IsValidationError(err), "got %v", err)
			assert.Equal(t, tt.wantField, fieldOf(t, err))
		})
	}
}

func TestService_CreateSubmission_disabled(t *testing.T) {
	env := testutil.NewEnv(t, func(s *settings.Settings) { s.EnableMeritProcess = false })

	_, err := env.Svc.CreateSubmission(ctx, testutil.NewSubmission("app-1", "Jane", year, 80, 100))
	require.Error(t, err)
	assert.Equal(t, "enable_merit_process", fieldOf(t, err))
}

func TestService_Submit(t *testing.T) {
	env := testutil.NewEnv(t)
	s := env.CreateSubmission(t, testutil.NewSubmission("app-1", "Jane", year, 80, 100))

	s, err := env.Svc.Submit(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, merit.DocCommitted, s.DocStatus)
	assert.Equal(t, merit.StatusSubmitted, s.SubmissionStatus)
	assert.False(t, s.SubmissionDate.IsZero())

	msgs := env.Mailer.SentMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Merit Score Submitted - Jane", msgs[0].Subject)
	assert.Equal(t, "app-1@test.cd", msgs[0].To[0].Address)
	assert.Equal(t, "merit_submission:"+s.ID, msgs[0].Reference)
	assert.Contains(t, msgs[0].TextContent, "Dear Jane")

	_, err = env.Svc.Submit(ctx, s.ID)
	assert.True(t, core.IsTerminalStateError(err), "got %v", err)

	_, err = env.Svc.Submit(ctx, "unknown")
	assert.Equal(t, merit.ErrSubmissionNotFound, errors.Cause(err))
}

func TestService_Submit_documents(t *testing.T) {
	env := testutil.NewEnv(t)
	ns := testutil.NewSubmission("app-1", "Jane", year, 80, 100)
	ns.SupportingDocuments = " "
	s := env.CreateSubmission(t, ns)

	_, err := env.Svc.Submit(ctx, s.ID)
	require.Error(t, err)
	assert.Equal(t, "supporting_documents", fieldOf(t, err))

	env.SetSettings(t, func(s *settings.Settings) {
		s.DocumentUploadMandatory = false
		s.NotifyOnSubmission = false
	})
	_, err = env.Svc.Submit(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, env.Mailer.SentMessages())
}

func TestService_UpdateSubmission(t *testing.T) {
	env := testutil.NewEnv(t)

	t.Run("draft scores replace the total", func(t *testing.T) {
		s := env.CreateSubmission(t, testutil.NewSubmission("app-1", "Jane", year, 80, 100))
		s, err := env.Svc.UpdateSubmission(ctx, testutil.Applicant, s.ID, merit.UpdateSubmission{
			Scores: testutil.Scores("Math", 30, 50, "Physics", 42.25, 50),
		})
		require.NoError(t, err)
		assert.Equal(t, 72.25, s.TotalScore)
		assert.Equal(t, 72.25, s.PercentageScore)
		assert.Equal(t, merit.GradeC, s.Grade)
	})

	t.Run("invalid status", func(t *testing.T) {
		s := env.CreateSubmission(t, testutil.NewSubmission("app-2", "John", year, 80, 100))
		_, err := env.Svc.UpdateSubmission(ctx, testutil.Admin, s.ID, merit.UpdateSubmission{
			ValidationStatus: valStatus("Maybe"),
		})
		require.Error(t, err)
		assert.Equal(t, "validation_status", fieldOf(t, err))
	})

	t.Run("committed status locked", func(t *testing.T) {
		s := env.SubmitSubmission(t, testutil.NewSubmission("app-3", "Jim", year, 80, 100))
		upd := merit.UpdateSubmission{ValidationStatus: valStatus(merit.Validated)}

		_, err := env.Svc.UpdateSubmission(ctx, testutil.Applicant, s.ID, upd)
		assert.True(t, core.IsPermissionError(err), "got %v", err)
		assert.Equal(t, "validation_status", fieldOf(t, err))

		s, err = env.Svc.UpdateSubmission(ctx, testutil.Teacher, s.ID, merit.UpdateSubmission{TeacherComments: strPtr("solid")})
		require.NoError(t, err)
		assert.Equal(t, "solid", s.TeacherComments)

		s, err = env.Svc.UpdateSubmission(ctx, testutil.Academics, s.ID, upd)
		require.NoError(t, err)
		assert.Equal(t, merit.Validated, s.ValidationStatus)
	})

	t.Run("validated scores locked", func(t *testing.T) {
		s := env.ApproveSubmission(t, testutil.NewSubmission("app-4", "Joy", year, 80, 100))
		upd := merit.UpdateSubmission{TotalScore: floatPtr(90)}

		_, err := env.Svc.UpdateSubmission(ctx, testutil.Admin, s.ID, upd)
		assert.True(t, core.IsPermissionError(err), "got %v", err)
		assert.Equal(t, "total_merit_score", fieldOf(t, err))

		s, err = env.Svc.UpdateSubmission(ctx, testutil.Admin, s.ID, merit.UpdateSubmission{Remarks: strPtr("reviewed")})
		require.NoError(t, err)
		assert.Equal(t, "reviewed", s.Remarks)

		env.SetSettings(t, func(s *settings.Settings) { s.AllowScoreModificationAfterValidation = true })
		defer env.SetSettings(t)

		s, err = env.Svc.UpdateSubmission(ctx, testutil.Admin, s.ID, upd)
		require.NoError(t, err)
		assert.Equal(t, 90.0, s.TotalScore)
		assert.Equal(t, merit.GradeA, s.Grade)
	})

	t.Run("cancelled", func(t *testing.T) {
		s := env.SubmitSubmission(t, testutil.NewSubmission("app-5", "Jo", year, 80, 100))
		_, err := env.Svc.Cancel(ctx, s.ID)
		require.NoError(t, err)

		_, err = env.Svc.UpdateSubmission(ctx, testutil.Admin, s.ID, merit.UpdateSubmission{Remarks: strPtr("late")})
		assert.True(t, core.IsTerminalStateError(err), "got %v", err)
	})
}

func TestService_DeleteSubmission(t *testing.T) {
	env := testutil.NewEnv(t)

	draft := env.CreateSubmission(t, testutil.NewSubmission("app-1", "Jane", year, 80, 100))
	require.NoError(t, env.Svc.DeleteSubmission(ctx, draft.ID))
	_, err := env.Svc.GetSubmission(ctx, draft.ID)
	assert.Equal(t, merit.ErrSubmissionNotFound, errors.Cause(err))

	submitted := env.SubmitSubmission(t, testutil.NewSubmission("app-2", "John", year, 80, 100))
	err = env.Svc.DeleteSubmission(ctx, submitted.ID)
	assert.True(t, core.IsPermissionError(err), "got %v", err)
}

func TestService_Cancel(t *testing.T) {
	env := testutil.NewEnv(t)

	draft := env.CreateSubmission(t, testutil.NewSubmission("app-1", "Jane", year, 80, 100))
	_, err := env.Svc.Cancel(ctx, draft.ID)
	assert.Equal(t, "docstatus", fieldOf(t, err))

	s := env.SubmitSubmission(t, testutil.NewSubmission("app-2", "John", year, 80, 100))
	_, err = env.Svc.OpenValidation(ctx, testutil.Admin, s.ID)
	require.NoError(t, err)

	s, err = env.Svc.Cancel(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, merit.DocCancelled, s.DocStatus)
	assert.Equal(t, merit.StatusDraft, s.SubmissionStatus)

	pending, err := env.Svc.PendingValidations(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = env.Svc.Submit(ctx, s.ID)
	assert.True(t, core.IsTerminalStateError(err), "got %v", err)

	validated := env.ApproveSubmission(t, testutil.NewSubmission("app-3", "Jim", year, 80, 100))
	validated, err = env.Svc.Cancel(ctx, validated.ID)
	require.NoError(t, err)
	assert.Equal(t, merit.DocCancelled, validated.DocStatus)
	assert.Equal(t, merit.StatusDraft, validated.SubmissionStatus)
	assert.Equal(t, 80.0, validated.TotalScore)

	_, err = env.Svc.UpdateSubmission(ctx, testutil.Admin, validated.ID, merit.UpdateSubmission{Program: strPtr("BSc")})
	assert.True(t, core.IsTerminalStateError(err), "got %v", err)
}

func TestService_ValidateSubmission(t *testing.T) {
	env := testutil.NewEnv(t)
	s := env.SubmitSubmission(t, testutil.NewSubmission("app-1", "Jane", year, 80, 100))
	draft := env.CreateSubmission(t, testutil.NewSubmission("app-2", "John", year, 70, 100))

	_, err := env.Svc.ValidateSubmission(ctx, testutil.Teacher, s.ID, merit.ActionApprove, "")
	assert.True(t, core.IsPermissionError(err), "got %v", err)

	_, err = env.Svc.ValidateSubmission(ctx, testutil.Admin, s.ID, "maybe", "")
	assert.Equal(t, "action", fieldOf(t, err))

	_, err = env.Svc.ValidateSubmission(ctx, testutil.Admin, draft.ID, merit.ActionApprove, "")
	assert.Equal(t, "docstatus", fieldOf(t, err))

	env.Mailer.Reset()
	s, err = env.Svc.ValidateSubmission(ctx, testutil.Academics, s.ID, merit.ActionApprove, " verified ")
	require.NoError(t, err)
	assert.Equal(t, merit.Validated, s.ValidationStatus)
	assert.Equal(t, merit.StatusApproved, s.SubmissionStatus)
	assert.Equal(t, merit.DocumentVerified, s.DocumentVerificationStatus)
	assert.Equal(t, "academics", s.ValidatedBy)
	assert.Equal(t, "verified", s.Remarks)
	assert.False(t, s.ValidationDate.IsZero())

	msgs := env.Mailer.SentMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Merit Score Validation Update - Jane", msgs[0].Subject)
	require.Len(t, msgs[0].To, 2)
	assert.Equal(t, "app-1@test.cd", msgs[0].To[0].Address)
	assert.Equal(t, "academics@test.cd", msgs[0].To[1].Address)
	assert.Contains(t, msgs[0].TextContent, "has been validated")

	ranked, err := env.Svc.GetSubmission(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, ranked.MeritRank, "ranks are refreshed after a decision")
	assert.Equal(t, 1, ranked.CategoryRank)

	other := env.SubmitSubmission(t, testutil.NewSubmission("app-3", "Jim", year, 60, 100))
	other, err = env.Svc.ValidateSubmission(ctx, testutil.Admin, other.ID, merit.ActionReject, "Incomplete documents")
	require.NoError(t, err)
	assert.Equal(t, merit.ValidationRejected, other.ValidationStatus)
	assert.Equal(t, merit.StatusRejected, other.SubmissionStatus)
	assert.Equal(t, "Incomplete documents", other.Remarks)
}

func TestService_UpdateDocumentVerification(t *testing.T) {
	env := testutil.NewEnv(t)
	s := env.SubmitSubmission(t, testutil.NewSubmission("app-1", "Jane", year, 80, 100))

	_, err := env.Svc.UpdateDocumentVerification(ctx, testutil.Teacher, s.ID, merit.DocumentVerified)
	assert.True(t, core.IsPermissionError(err), "got %v", err)

	_, err = env.Svc.UpdateDocumentVerification(ctx, testutil.Admin, s.ID, "Lost")
	assert.Equal(t, "document_verification_status", fieldOf(t, err))

	_, err = env.Svc.UpdateDocumentVerification(ctx, testutil.Admin, "unknown", merit.DocumentVerified)
	assert.Equal(t, merit.ErrSubmissionNotFound, errors.Cause(err))

	s, err = env.Svc.UpdateDocumentVerification(ctx, testutil.Admin, s.ID, merit.DocumentVerified)
	require.NoError(t, err)
	assert.Equal(t, merit.DocumentVerified, s.DocumentVerificationStatus)
	assert.Equal(t, merit.ValidationPending, s.ValidationStatus)

	env.SetSettings(t, func(s *settings.Settings) { s.AutoApproveOnVerifiedDocs = true })
	other := env.SubmitSubmission(t, testutil.NewSubmission("app-2", "John", year, 80, 100))
	other, err = env.Svc.UpdateDocumentVerification(ctx, testutil.Admin, other.ID, merit.DocumentVerified)
	require.NoError(t, err)
	assert.Equal(t, merit.Validated, other.ValidationStatus)
	assert.Equal(t, merit.StatusApproved, other.SubmissionStatus)
	assert.Equal(t, "admin", other.ValidatedBy)

	draft := env.CreateSubmission(t, testutil.NewSubmission("app-3", "Jim", year, 80, 100))
	draft, err = env.Svc.UpdateDocumentVerification(ctx, testutil.Admin, draft.ID, merit.DocumentVerified)
	require.NoError(t, err)
	assert.Equal(t, merit.ValidationPending, draft.ValidationStatus, "drafts are not auto approved")
}

func TestService_CheckMeritRequirement(t *testing.T) {
	env := testutil.NewEnv(t)

	req, err := env.Svc.CheckMeritRequirement(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, merit.Requirement{Satisfied: true, Message: "merit list submission is not required"}, req)

	env.SetSettings(t, func(s *settings.Settings) { s.MeritMandatory = true })
	req, err = env.Svc.CheckMeritRequirement(ctx, "app-1")
	require.NoError(t, err)
	assert.True(t, req.Required)
	assert.False(t, req.Satisfied)

	s := env.CreateSubmission(t, testutil.NewSubmission("app-1", "Jane", year, 80, 100))
	req, _ = env.Svc.CheckMeritRequirement(ctx, "app-1")
	assert.False(t, req.Satisfied, "drafts do not count")

	_, err = env.Svc.Submit(ctx, s.ID)
	require.NoError(t, err)
	req, err = env.Svc.CheckMeritRequirement(ctx, " app-1 ")
	require.NoError(t, err)
	assert.True(t, req.Required)
	assert.True(t, req.Satisfied)

	env.SetSettings(t, func(s *settings.Settings) {
		s.MeritMandatory = true
		s.EnableMeritProcess = false
	})
	req, _ = env.Svc.CheckMeritRequirement(ctx, "app-2")
	assert.False(t, req.Required)
	assert.True(t, req.Satisfied)
}

func TestService_authorizer(t *testing.T) {
	env := testutil.NewEnv(t)
	registrar := user.User{ID: "u-reg", Username: "registrar", Email: "registrar@test.cd", Roles: []string{user.RoleTeacher}}
	svc := merit.NewService(merit.Deps{
		Repo:       env.Repo,
		Settings:   env.Settings,
		Authorizer: user.AuthorizerFunc(func(usr user.User) bool { return usr.ID == registrar.ID }),
		Mailer:     env.Mailer,
		Logger:     env.Logger,
		Validate:   env.Validate,
		Translator: env.Trans,
	})
	s := env.SubmitSubmission(t, testutil.NewSubmission("app-1", "Jane", year, 80, 100))

	_, err := svc.ValidateSubmission(ctx, testutil.Admin, s.ID, merit.ActionApprove, "")
	assert.True(t, core.IsPermissionError(err), "only the injected authorizer decides, got %v", err)

	s, err = svc.ValidateSubmission(ctx, registrar, s.ID, merit.ActionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, merit.StatusApproved, s.SubmissionStatus)
	assert.Equal(t, merit.Validated, s.ValidationStatus)
}
