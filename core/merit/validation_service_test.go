package merit_test

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/meritlist/core"
	"github.com/trezcool/meritlist/core/merit"
	"github.com/trezcool/meritlist/core/settings"
	"github.com/trezcool/meritlist/tests"
)

func TestService_OpenValidation(t *testing.T) {
	env := testutil.NewEnv(t)
	s := env.SubmitSubmission(t, testutil.NewSubmission("app-1", "Jane", year, 80, 100))
	draft := env.CreateSubmission(t, testutil.NewSubmission("app-2", "John", year, 70, 100))

	_, err := env.Svc.OpenValidation(ctx, testutil.Teacher, s.ID)
	assert.True(t, core.IsPermissionError(err), "got %v", err)

	_, err = env.Svc.OpenValidation(ctx, testutil.Admin, draft.ID)
	assert.Equal(t, "merit_submission", fieldOf(t, err))

	_, err = env.Svc.OpenValidation(ctx, testutil.Admin, "unknown")
	assert.Equal(t, merit.ErrSubmissionNotFound, errors.Cause(err))

	v, err := env.Svc.OpenValidation(ctx, testutil.Academics, s.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, v.ID)
	assert.Equal(t, s.ID, v.SubmissionID)
	assert.Equal(t, "Jane", v.ApplicantName)
	assert.Equal(t, "academics", v.Validator)
	assert.Equal(t, 80.0, v.OriginalTotalScore)
	assert.Equal(t, 80.0, v.OriginalPercentage)
	assert.Equal(t, 80.0, v.VerifiedTotalScore)
	assert.Equal(t, 80.0, v.VerifiedPercentage)
	assert.Zero(t, v.ScoreDifference)
	assert.Equal(t, merit.DecisionPending, v.FinalDecision)
	assert.Equal(t, merit.DocDraft, v.DocStatus)

	s, err = env.Svc.GetSubmission(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, merit.StatusUnderReview, s.SubmissionStatus)
	assert.Equal(t, merit.DocumentUnderReview, s.DocumentVerificationStatus)

	again, err := env.Svc.OpenValidation(ctx, testutil.Admin, s.ID)
	require.NoError(t, err)
	assert.Equal(t, v.ID, again.ID, "one validation per submission")
	assert.Equal(t, "academics", again.Validator)

	got, err := env.Svc.GetValidation(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, v, got)
}

func TestService_UpdateValidation(t *testing.T) {
	env := testutil.NewEnv(t)
	s := env.SubmitSubmission(t, testutil.NewSubmission("app-1", "Jane", year, 80, 100))
	v, err := env.Svc.OpenValidation(ctx, testutil.Admin, s.ID)
	require.NoError(t, err)

	_, err = env.Svc.UpdateValidation(ctx, testutil.Teacher, v.ID, merit.UpdateValidation{VerifiedTotalScore: floatPtr(85)})
	assert.True(t, core.IsPermissionError(err), "got %v", err)

	_, err = env.Svc.UpdateValidation(ctx, testutil.Admin, v.ID, merit.UpdateValidation{VerifiedTotalScore: floatPtr(-1)})
	assert.Equal(t, "verified_total_score", fieldOf(t, err))

	_, err = env.Svc.UpdateValidation(ctx, testutil.Admin, "unknown", merit.UpdateValidation{})
	assert.Equal(t, merit.ErrValidationNotFound, errors.Cause(err))

	v, err = env.Svc.UpdateValidation(ctx, testutil.Admin, v.ID, merit.UpdateValidation{
		VerifiedTotalScore: floatPtr(85.5),
		ValidationComments: strPtr(" transcript checked "),
	})
	require.NoError(t, err)
	assert.Equal(t, 85.5, v.VerifiedTotalScore)
	assert.Equal(t, 85.5, v.VerifiedPercentage)
	assert.Equal(t, 5.5, v.ScoreDifference)
	assert.Equal(t, 5.5, v.PercentageDifference)
	assert.Equal(t, "transcript checked", v.ValidationComments)

	s, err = env.Svc.GetSubmission(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 80.0, s.TotalScore, "the submission is only changed on finalize")
}

func TestService_FinalizeValidation(t *testing.T) {
	env := testutil.NewEnv(t)

	t.Run("approved", func(t *testing.T) {
		s := env.SubmitSubmission(t, testutil.NewSubmission("app-1", "Jane", year, 80, 100))
		v, err := env.Svc.OpenValidation(ctx, testutil.Academics, s.ID)
		require.NoError(t, err)
		_, err = env.Svc.UpdateValidation(ctx, testutil.Academics, v.ID, merit.UpdateValidation{VerifiedTotalScore: floatPtr(90)})
		require.NoError(t, err)

		_, _, err = env.Svc.FinalizeValidation(ctx, testutil.Academics, v.ID, merit.FinalizeValidation{Decision: "Maybe"})
		assert.Equal(t, "final_decision", fieldOf(t, err))

		_, _, err = env.Svc.FinalizeValidation(ctx, testutil.Teacher, v.ID, merit.FinalizeValidation{Decision: merit.DecisionApproved})
		assert.True(t, core.IsPermissionError(err), "got %v", err)

		env.Mailer.Reset()
		v, s, err = env.Svc.FinalizeValidation(ctx, testutil.Academics, v.ID, merit.FinalizeValidation{
			Decision: merit.DecisionApproved,
			Comments: "score corrected",
		})
		require.NoError(t, err)

		assert.Equal(t, merit.DocCommitted, v.DocStatus)
		assert.Equal(t, merit.DecisionApproved, v.FinalDecision)
		assert.Equal(t, "score corrected", v.ValidationComments)
		assert.Equal(t, 10.0, v.ScoreDifference)

		assert.Equal(t, 90.0, s.TotalScore)
		assert.Equal(t, 90.0, s.PercentageScore)
		assert.Equal(t, merit.GradeA, s.Grade)
		assert.Equal(t, merit.Validated, s.ValidationStatus)
		assert.Equal(t, merit.StatusApproved, s.SubmissionStatus)
		assert.Equal(t, merit.DocumentVerified, s.DocumentVerificationStatus)
		assert.Equal(t, "academics", s.ValidatedBy)
		assert.Equal(t, "score corrected", s.Remarks)

		msgs := env.Mailer.SentMessages()
		require.Len(t, msgs, 1)
		assert.Equal(t, "merit_submission:"+s.ID, msgs[0].Reference)

		stored, err := env.Svc.GetSubmission(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.MeritRank)

		_, _, err = env.Svc.FinalizeValidation(ctx, testutil.Academics, v.ID, merit.FinalizeValidation{Decision: merit.DecisionRejected})
		assert.True(t, core.IsTerminalStateError(err), "got %v", err)

		_, err = env.Svc.UpdateValidation(ctx, testutil.Academics, v.ID, merit.UpdateValidation{ValidationComments: strPtr("late")})
		assert.True(t, core.IsTerminalStateError(err), "got %v", err)
	})

	t.Run("scored by subject", func(t *testing.T) {
		ns := testutil.NewSubmission("app-4", "Jill", year, 85, 100)
		ns.Scores = testutil.Scores("Math", 40, 50, "Physics", 45, 50)
		s := env.SubmitSubmission(t, ns)
		v, err := env.Svc.OpenValidation(ctx, testutil.Academics, s.ID)
		require.NoError(t, err)

		_, err = env.Svc.UpdateValidation(ctx, testutil.Academics, v.ID, merit.UpdateValidation{VerifiedTotalScore: floatPtr(90)})
		assert.Equal(t, "verified_total_score", fieldOf(t, err))
		_, err = env.Svc.UpdateValidation(ctx, testutil.Academics, v.ID, merit.UpdateValidation{VerifiedTotalScore: floatPtr(100.5)})
		assert.Equal(t, "verified_total_score", fieldOf(t, err))

		v, err = env.Svc.UpdateValidation(ctx, testutil.Academics, v.ID, merit.UpdateValidation{VerifiedTotalScore: floatPtr(85.01)})
		require.NoError(t, err)
		assert.Equal(t, 0.01, v.ScoreDifference)

		v, s, err = env.Svc.FinalizeValidation(ctx, testutil.Academics, v.ID, merit.FinalizeValidation{Decision: merit.DecisionApproved})
		require.NoError(t, err)
		assert.Equal(t, merit.DecisionApproved, v.FinalDecision)
		assert.Equal(t, 85.01, s.TotalScore)
		assert.Equal(t, merit.StatusApproved, s.SubmissionStatus)
		require.Len(t, s.Scores, 2)
	})

	t.Run("rejected", func(t *testing.T) {
		s := env.SubmitSubmission(t, testutil.NewSubmission("app-2", "John", year, 70, 100))
		v, err := env.Svc.OpenValidation(ctx, testutil.Admin, s.ID)
		require.NoError(t, err)

		v, s, err = env.Svc.FinalizeValidation(ctx, testutil.Admin, v.ID, merit.FinalizeValidation{Decision: merit.DecisionRejected})
		require.NoError(t, err)
		assert.Equal(t, merit.DecisionRejected, v.FinalDecision)
		assert.Equal(t, merit.ValidationRejected, s.ValidationStatus)
		assert.Equal(t, merit.StatusRejected, s.SubmissionStatus)
		assert.Equal(t, "Merit submission rejected during validation", s.Remarks)
		assert.Equal(t, 70.0, s.TotalScore)
	})

	t.Run("no notification", func(t *testing.T) {
		env.SetSettings(t, func(s *settings.Settings) { s.NotifyOnValidation = false })
		defer env.SetSettings(t)

		s := env.SubmitSubmission(t, testutil.NewSubmission("app-3", "Jim", year, 60, 100))
		v, err := env.Svc.OpenValidation(ctx, testutil.Admin, s.ID)
		require.NoError(t, err)

		env.Mailer.Reset()
		_, _, err = env.Svc.FinalizeValidation(ctx, testutil.Admin, v.ID, merit.FinalizeValidation{Decision: merit.DecisionApproved})
		require.NoError(t, err)
		assert.Empty(t, env.Mailer.SentMessages())
	})
}

func TestService_PendingValidations(t *testing.T) {
	env := testutil.NewEnv(t)
	defer func() { merit.NowFunc = time.Now }()

	t0 := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	var opened []merit.Validation
	for i, id := range []string{"app-1", "app-2", "app-3"} {
		merit.NowFunc = func() time.Time { return t0.Add(time.Duration(i) * time.Hour) }
		s := env.SubmitSubmission(t, testutil.NewSubmission(id, "Applicant "+id, year, 70, 100))
		v, err := env.Svc.OpenValidation(ctx, testutil.Admin, s.ID)
		require.NoError(t, err)
		opened = append(opened, v)
	}
	_, _, err := env.Svc.FinalizeValidation(ctx, testutil.Admin, opened[1].ID, merit.FinalizeValidation{Decision: merit.DecisionApproved})
	require.NoError(t, err)

	pending, err := env.Svc.PendingValidations(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, opened[2].ID, pending[0].ID, "newest first")
	assert.Equal(t, opened[0].ID, pending[1].ID)

	pending, err = env.Svc.PendingValidations(ctx, 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, opened[2].ID, pending[0].ID)
}

func TestService_SendValidationReminders(t *testing.T) {
	env := testutil.NewEnv(t)
	defer func() { merit.NowFunc = time.Now }()

	t0 := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	merit.NowFunc = func() time.Time { return t0 }
	old := env.SubmitSubmission(t, testutil.NewSubmission("app-1", "Jane", year, 70, 100))
	_, err := env.Svc.OpenValidation(ctx, testutil.Academics, old.ID)
	require.NoError(t, err)

	merit.NowFunc = func() time.Time { return t0.Add(48 * time.Hour) }
	recent := env.SubmitSubmission(t, testutil.NewSubmission("app-2", "John", year, 70, 100))
	_, err = env.Svc.OpenValidation(ctx, testutil.Admin, recent.ID)
	require.NoError(t, err)

	// 4 days after the first validation was opened, 2 days after the second one
	merit.NowFunc = func() time.Time { return t0.Add(96 * time.Hour) }
	env.Mailer.Reset()
	sent, err := env.Svc.SendValidationReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	msgs := env.Mailer.SentMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Pending Merit Score Validation - Jane", msgs[0].Subject)
	assert.Equal(t, "academics@test.cd", msgs[0].To[0].Address)
	assert.Contains(t, msgs[0].TextContent, "Hello academics")

	env.SetSettings(t, func(s *settings.Settings) { s.ReminderDays = 1 })
	sent, err = env.Svc.SendValidationReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	// unset reminder days fall back to the default 3 days
	env.SetSettings(t, func(s *settings.Settings) { s.ReminderDays = 0 })
	sent, err = env.Svc.SendValidationReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}
