package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/meritlist/core"
	"github.com/trezcool/meritlist/core/merit"
	"github.com/trezcool/meritlist/core/settings"
	"github.com/trezcool/meritlist/storage/database"
)

// OpenTestDB opens the database at $TEST_DATABASE_URL, migrates it and empties the merit tables.
// The test is skipped when the variable is not set.
func OpenTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}
	db, err := database.OpenURL(dsn)
	if err != nil {
		t.Fatalf("OpenTestDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db, "up"); err != nil {
		t.Fatalf("OpenTestDB() failed: %v", err)
	}
	ResetDB(t, db)
	return db
}

// ResetDB empties the merit tables.
func ResetDB(t *testing.T, db *sql.DB) {
	t.Helper()

	_, err := db.Exec(`TRUNCATE merit_validations, merit_subject_scores, merit_submissions, merit_settings
		RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("ResetDB() failed: %v", err)
	}
}

// normalize drops what a store may legitimately change: time locations and empty score slices.
func normalize(s merit.Submission) merit.Submission {
	s.ValidationDate = s.ValidationDate.UTC()
	s.SubmissionDate = s.SubmissionDate.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	if len(s.Scores) == 0 {
		s.Scores = nil
	}
	return s
}

func normalizeValidation(v merit.Validation) merit.Validation {
	v.ValidationDate = v.ValidationDate.UTC()
	v.CreatedAt = v.CreatedAt.UTC()
	v.UpdatedAt = v.UpdatedAt.UTC()
	return v
}

func submissionFixture(applicantID, program string, total float64, ds merit.DocStatus, createdAt time.Time) merit.Submission {
	s := merit.Submission{
		ApplicantID:                applicantID,
		ApplicantName:              "Applicant " + applicantID,
		ApplicantEmail:             applicantID + "@test.cd",
		AcademicYear:               "2024-2025",
		Program:                    program,
		Category:                   "Science",
		TotalScore:                 total,
		MaximumPossibleScore:       100,
		SubmissionStatus:           merit.StatusDraft,
		ValidationStatus:           merit.ValidationPending,
		DocumentVerificationStatus: merit.DocumentPending,
		SupportingDocuments:        "/files/" + applicantID + ".pdf",
		DocStatus:                  ds,
		CreatedAt:                  createdAt,
		UpdatedAt:                  createdAt,
	}
	s.FinalizePercentageAndGrade()
	return s
}

// RunMeritRepositoryTests checks the behaviour every merit.Repository must have against the repo built by `newRepo`.
// `newRepo` must return a repository over empty tables.
func RunMeritRepositoryTests(t *testing.T, newRepo func(t *testing.T) merit.Repository) {
	ctx := context.Background()
	t0 := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	t.Run("submissions", func(t *testing.T) {
		repo := newRepo(t)

		a := submissionFixture("app-a", "BSc", 40.5, merit.DocCommitted, t0)
		a.Scores = []merit.ScoreRecord{merit.NewScoreRecord("Math", 20, 50), merit.NewScoreRecord("Physics", 20.5, 50)}
		a.SubmissionDate = t0.Add(time.Minute)
		a, err := repo.CreateSubmission(ctx, a)
		require.NoError(t, err)
		require.NotEmpty(t, a.ID)

		b, err := repo.CreateSubmission(ctx, submissionFixture("app-b", "BSc", 90, merit.DocDraft, t0.Add(time.Hour)))
		require.NoError(t, err)
		c, err := repo.CreateSubmission(ctx, submissionFixture("app-c", "MSc", 70, merit.DocCommitted, t0.Add(2*time.Hour)))
		require.NoError(t, err)
		assert.True(t, a.Serial < b.Serial && b.Serial < c.Serial, "serials follow creation order")

		got, err := repo.GetSubmission(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, normalize(a), normalize(got))

		_, err = repo.GetSubmission(ctx, uuid.NewString())
		assert.Equal(t, merit.ErrSubmissionNotFound, errors.Cause(err))
		_, err = repo.GetSubmission(ctx, "not-a-uuid")
		assert.Equal(t, merit.ErrSubmissionNotFound, errors.Cause(err))

		// update
		a.Scores = []merit.ScoreRecord{merit.NewScoreRecord("Chemistry", 45, 50)}
		a.TotalScore = 45
		a.FinalizePercentageAndGrade()
		a.ValidationStatus = merit.Validated
		a.ValidatedBy = "admin"
		a.ValidationDate = t0.Add(3 * time.Hour)
		a.Remarks = "ok"
		a.UpdatedAt = t0.Add(3 * time.Hour)
		_, err = repo.UpdateSubmission(ctx, a)
		require.NoError(t, err)
		got, err = repo.GetSubmission(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, normalize(a), normalize(got))

		ghost := submissionFixture("ghost", "BSc", 10, merit.DocDraft, t0)
		ghost.ID = uuid.NewString()
		_, err = repo.UpdateSubmission(ctx, ghost)
		assert.Equal(t, merit.ErrSubmissionNotFound, errors.Cause(err))

		// query
		ids := func(subs []merit.Submission) []string {
			out := make([]string, 0, len(subs))
			for _, s := range subs {
				out = append(out, s.ApplicantID)
			}
			return out
		}
		subs, err := repo.QuerySubmissions(ctx, merit.SubmissionFilter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"app-a", "app-b", "app-c"}, ids(subs))

		subs, err = repo.QuerySubmissions(ctx, merit.SubmissionFilter{}, core.Desc(merit.FieldTotalScore))
		require.NoError(t, err)
		assert.Equal(t, []string{"app-b", "app-c", "app-a"}, ids(subs))

		subs, err = repo.QuerySubmissions(ctx, merit.SubmissionFilter{Limit: 2}, core.Desc(merit.FieldSerial))
		require.NoError(t, err)
		assert.Equal(t, []string{"app-c", "app-b"}, ids(subs))

		committed := merit.DocStatusPtr(merit.DocCommitted)
		subs, err = repo.QuerySubmissions(ctx, merit.SubmissionFilter{Program: "BSc", DocStatus: committed})
		require.NoError(t, err)
		assert.Equal(t, []string{"app-a"}, ids(subs))
		require.Len(t, subs[0].Scores, 1)
		assert.Equal(t, "Chemistry", subs[0].Scores[0].Subject)

		subs, err = repo.QuerySubmissions(ctx, merit.SubmissionFilter{MinimumScore: 50, ApplicantID: "app-c", AcademicYear: "2024-2025"})
		require.NoError(t, err)
		assert.Equal(t, []string{"app-c"}, ids(subs))

		subs, err = repo.QuerySubmissions(ctx, merit.SubmissionFilter{ValidationStatus: merit.Validated, Category: "Science"})
		require.NoError(t, err)
		assert.Equal(t, []string{"app-a"}, ids(subs))

		n, err := repo.CountSubmissions(ctx, merit.SubmissionFilter{DocStatus: committed})
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		n, err = repo.CountSubmissions(ctx, merit.SubmissionFilter{SubmissionStatus: merit.StatusApproved})
		require.NoError(t, err)
		assert.Zero(t, n)

		// ranks & document status
		require.NoError(t, repo.SetRanks(ctx, []merit.RankUpdate{
			{SubmissionID: a.ID, MeritRank: 2, CategoryRank: 1},
			{SubmissionID: c.ID, MeritRank: 1, CategoryRank: 1},
		}))
		err = repo.SetRanks(ctx, []merit.RankUpdate{{SubmissionID: uuid.NewString(), MeritRank: 1}})
		assert.Equal(t, merit.ErrSubmissionNotFound, errors.Cause(err))

		require.NoError(t, repo.SetDocumentVerification(ctx, c.ID, merit.DocumentRejected))
		err = repo.SetDocumentVerification(ctx, uuid.NewString(), merit.DocumentVerified)
		assert.Equal(t, merit.ErrSubmissionNotFound, errors.Cause(err))

		got, err = repo.GetSubmission(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.MeritRank)
		assert.Equal(t, merit.DocumentRejected, got.DocumentVerificationStatus)
		got, err = repo.GetSubmission(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.MeritRank)
		assert.Equal(t, 1, got.CategoryRank)

		// delete
		require.NoError(t, repo.DeleteSubmission(ctx, b.ID))
		_, err = repo.GetSubmission(ctx, b.ID)
		assert.Equal(t, merit.ErrSubmissionNotFound, errors.Cause(err))
		err = repo.DeleteSubmission(ctx, b.ID)
		assert.Equal(t, merit.ErrSubmissionNotFound, errors.Cause(err))
	})

	t.Run("validations", func(t *testing.T) {
		repo := newRepo(t)

		var subs []merit.Submission
		for _, id := range []string{"app-a", "app-b", "app-c"} {
			s, err := repo.CreateSubmission(ctx, submissionFixture(id, "BSc", 70, merit.DocCommitted, t0))
			require.NoError(t, err)
			subs = append(subs, s)
		}

		var vals []merit.Validation
		for i, s := range subs {
			created := t0.Add(time.Duration(i) * time.Hour)
			v, err := repo.CreateValidation(ctx, merit.Validation{
				SubmissionID:       s.ID,
				ApplicantName:      s.ApplicantName,
				Validator:          "admin",
				ValidatorEmail:     "admin@test.cd",
				OriginalTotalScore: 70,
				OriginalPercentage: 70,
				VerifiedTotalScore: 70,
				VerifiedPercentage: 70,
				FinalDecision:      merit.DecisionPending,
				DocStatus:          merit.DocDraft,
				ValidationDate:     created,
				CreatedAt:          created,
				UpdatedAt:          created,
			})
			require.NoError(t, err)
			require.NotEmpty(t, v.ID)
			vals = append(vals, v)
		}

		_, err := repo.CreateValidation(ctx, merit.Validation{SubmissionID: subs[0].ID, CreatedAt: t0, UpdatedAt: t0})
		assert.Equal(t, merit.ErrValidationExists, errors.Cause(err))

		got, err := repo.GetValidation(ctx, vals[0].ID)
		require.NoError(t, err)
		assert.Equal(t, normalizeValidation(vals[0]), normalizeValidation(got))

		got, err = repo.GetValidationBySubmission(ctx, subs[1].ID)
		require.NoError(t, err)
		assert.Equal(t, vals[1].ID, got.ID)

		_, err = repo.GetValidation(ctx, uuid.NewString())
		assert.Equal(t, merit.ErrValidationNotFound, errors.Cause(err))
		_, err = repo.GetValidationBySubmission(ctx, uuid.NewString())
		assert.Equal(t, merit.ErrValidationNotFound, errors.Cause(err))

		v := vals[1]
		v.VerifiedTotalScore = 75
		v.Recompute(100)
		v.FinalDecision = merit.DecisionApproved
		v.DocStatus = merit.DocCommitted
		v.UpdatedAt = t0.Add(5 * time.Hour)
		_, err = repo.UpdateValidation(ctx, v)
		require.NoError(t, err)
		got, err = repo.GetValidation(ctx, v.ID)
		require.NoError(t, err)
		assert.Equal(t, normalizeValidation(v), normalizeValidation(got))

		ghost := v
		ghost.ID = uuid.NewString()
		_, err = repo.UpdateValidation(ctx, ghost)
		assert.Equal(t, merit.ErrValidationNotFound, errors.Cause(err))

		open := merit.DocStatusPtr(merit.DocDraft)
		pending, err := repo.QueryValidations(ctx, merit.ValidationFilter{DocStatus: open}, core.Desc(merit.FieldCreatedAt))
		require.NoError(t, err)
		require.Len(t, pending, 2)
		assert.Equal(t, vals[2].ID, pending[0].ID)
		assert.Equal(t, vals[0].ID, pending[1].ID)

		pending, err = repo.QueryValidations(ctx,
			merit.ValidationFilter{DocStatus: open, CreatedBefore: t0.Add(time.Hour), Limit: 5},
			core.Asc(merit.FieldCreatedAt),
		)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, vals[0].ID, pending[0].ID)

		n, err := repo.DeleteValidations(ctx, merit.ValidationFilter{SubmissionID: subs[1].ID, DocStatus: open})
		require.NoError(t, err)
		assert.Zero(t, n, "committed validations are kept")

		n, err = repo.DeleteValidations(ctx, merit.ValidationFilter{SubmissionID: subs[2].ID, DocStatus: open})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		_, err = repo.GetValidation(ctx, vals[2].ID)
		assert.Equal(t, merit.ErrValidationNotFound, errors.Cause(err))
	})

	t.Run("transactions", func(t *testing.T) {
		repo := newRepo(t)
		boom := errors.New("boom")

		err := repo.RunInTx(ctx, func(tx merit.Repository) error {
			if _, err := tx.CreateSubmission(ctx, submissionFixture("app-a", "BSc", 50, merit.DocDraft, t0)); err != nil {
				return err
			}
			return boom
		})
		assert.Equal(t, boom, errors.Cause(err))

		n, err := repo.CountSubmissions(ctx, merit.SubmissionFilter{})
		require.NoError(t, err)
		assert.Zero(t, n, "rolled back")

		var created merit.Submission
		err = repo.RunInTx(ctx, func(tx merit.Repository) error {
			return tx.RunInTx(ctx, func(nested merit.Repository) error {
				var err error
				created, err = nested.CreateSubmission(ctx, submissionFixture("app-b", "BSc", 50, merit.DocDraft, t0))
				return err
			})
		})
		require.NoError(t, err)
		_, err = repo.GetSubmission(ctx, created.ID)
		assert.NoError(t, err, "nested transactions join the outer one")
	})
}

// RunSettingsRepositoryTests checks the behaviour every settings.Repository must have.
func RunSettingsRepositoryTests(t *testing.T, repo settings.Repository) {
	ctx := context.Background()

	_, err := repo.GetSettings(ctx)
	assert.Equal(t, settings.ErrNotFound, errors.Cause(err))

	s := settings.Defaults()
	s.MeritMandatory = true
	s.DefaultMinimumScore = 55.5
	require.NoError(t, repo.SaveSettings(ctx, s))

	got, err := repo.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	s.EnableMeritProcess = false
	s.ReminderDays = 7
	require.NoError(t, repo.SaveSettings(ctx, s))
	got, err = repo.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}
