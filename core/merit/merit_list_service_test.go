package merit_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/meritlist/core"
	"github.com/trezcool/meritlist/core/merit"
	"github.com/trezcool/meritlist/core/settings"
	"github.com/trezcool/meritlist/tests"
)

func applicantIDs(subs []merit.Submission) string {
	out := make([]string, 0, len(subs))
	for _, s := range subs {
		out = append(out, s.ApplicantID)
	}
	return strings.Join(out, ",")
}

// seed creates, in this order:
// app-a(80, Science, approved), app-b(90, approved), app-c(70, Science, approved),
// app-d(95, submitted), app-e(85, draft), app-f(60, rejected), app-g(99, approved, MSc).
func seed(t *testing.T, env *testutil.Env) {
	t.Helper()

	mk := func(id string, total float64, program, category string) merit.NewSubmission {
		ns := testutil.NewSubmission(id, "Applicant "+id, year, total, 100)
		ns.Program = program
		ns.Category = category
		return ns
	}
	env.ApproveSubmission(t, mk("app-a", 80, "BSc", "Science"))
	env.ApproveSubmission(t, mk("app-b", 90, "BSc", ""))
	env.ApproveSubmission(t, mk("app-c", 70, "BSc", "Science"))
	env.SubmitSubmission(t, mk("app-d", 95, "BSc", ""))
	env.CreateSubmission(t, mk("app-e", 85, "BSc", ""))

	rejected := env.SubmitSubmission(t, mk("app-f", 60, "BSc", ""))
	_, err := env.Svc.ValidateSubmission(ctx, testutil.Admin, rejected.ID, merit.ActionReject, "")
	require.NoError(t, err)

	env.ApproveSubmission(t, mk("app-g", 99, "MSc", ""))
}

func stored(t *testing.T, env *testutil.Env) map[string]merit.Submission {
	t.Helper()

	subs, err := env.Svc.QuerySubmissions(ctx, merit.SubmissionFilter{})
	require.NoError(t, err)
	byApplicant := make(map[string]merit.Submission, len(subs))
	for _, s := range subs {
		byApplicant[s.ApplicantID] = s
	}
	return byApplicant
}

func TestService_autoRanking(t *testing.T) {
	env := testutil.NewEnv(t)
	seed(t, env)

	subs := stored(t, env)
	want := map[string]struct{ merit, category int }{
		"app-b": {1, 1},
		"app-a": {2, 1},
		"app-c": {3, 2},
		"app-g": {1, 1}, // ranked within its program
		"app-d": {0, 0},
		"app-e": {0, 0},
		"app-f": {0, 0},
	}
	for id, w := range want {
		assert.Equal(t, w.merit, subs[id].MeritRank, "merit rank of %s", id)
		assert.Equal(t, w.category, subs[id].CategoryRank, "category rank of %s", id)
	}
}

func TestService_GetMeritRanking(t *testing.T) {
	env := testutil.NewEnv(t)
	seed(t, env)

	_, err := env.Svc.GetMeritRanking(ctx, merit.Scope{})
	assert.Equal(t, "academic_year", fieldOf(t, err))

	_, err = env.Svc.GetMeritRanking(ctx, merit.Scope{AcademicYear: year, MaximumResults: -1})
	assert.True(t, core.IsValidationError(err), "got %v", err)

	ranked, err := env.Svc.GetMeritRanking(ctx, merit.Scope{AcademicYear: year})
	require.NoError(t, err)
	assert.Equal(t, "app-g,app-b,app-a,app-c", applicantIDs(ranked))

	ranked, err = env.Svc.GetMeritRanking(ctx, merit.Scope{AcademicYear: year, Program: "BSc", IncludePending: true})
	require.NoError(t, err)
	assert.Equal(t, "app-d,app-b,app-a,app-c,app-f", applicantIDs(ranked))
	for i, s := range ranked {
		assert.Equal(t, i+1, s.MeritRank)
	}

	again, err := env.Svc.GetMeritRanking(ctx, merit.Scope{AcademicYear: year, Program: "BSc", IncludePending: true})
	require.NoError(t, err)
	assert.Equal(t, ranked, again, "ranking is idempotent")

	subs := stored(t, env)
	assert.Equal(t, 1, subs["app-d"].MeritRank)
	assert.Equal(t, 0, subs["app-e"].MeritRank, "drafts are never ranked")

	ranked, err = env.Svc.GetMeritRanking(ctx, merit.Scope{AcademicYear: "1999-2000"})
	require.NoError(t, err)
	assert.Empty(t, ranked)
}

func TestService_GetMeritRanking_categoryDisabled(t *testing.T) {
	env := testutil.NewEnv(t, func(s *settings.Settings) { s.CategoryRankingEnabled = false })
	seed(t, env)

	ranked, err := env.Svc.GetMeritRanking(ctx, merit.Scope{AcademicYear: year, Program: "BSc"})
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	for _, s := range ranked {
		assert.Zero(t, s.CategoryRank)
	}
}

func TestService_GenerateMeritList(t *testing.T) {
	env := testutil.NewEnv(t)
	seed(t, env)

	tests := []struct {
		name       string
		scope      merit.Scope
		wantIDs    string
		wantCounts merit.ListCounts
	}{
		{
			name:       "validated only",
			scope:      merit.Scope{AcademicYear: year, Program: "BSc"},
			wantIDs:    "app-b,app-a,app-c",
			wantCounts: merit.ListCounts{Total: 3, Validated: 3},
		},
		{
			name:       "including pending",
			scope:      merit.Scope{AcademicYear: year, Program: "BSc", IncludePending: true},
			wantIDs:    "app-d,app-b,app-a,app-c,app-f",
			wantCounts: merit.ListCounts{Total: 5, Validated: 3, Pending: 2},
		},
		{
			name:       "category",
			scope:      merit.Scope{AcademicYear: year, Category: " Science "},
			wantIDs:    "app-a,app-c",
			wantCounts: merit.ListCounts{Total: 2, Validated: 2},
		},
		{
			name:       "minimum score",
			scope:      merit.Scope{AcademicYear: year, MinimumScore: 80},
			wantIDs:    "app-g,app-b,app-a",
			wantCounts: merit.ListCounts{Total: 3, Validated: 3},
		},
		{
			name:       "maximum results",
			scope:      merit.Scope{AcademicYear: year, MaximumResults: 2},
			wantIDs:    "app-g,app-b",
			wantCounts: merit.ListCounts{Total: 2, Validated: 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ml, err := env.Svc.GenerateMeritList(ctx, tt.scope)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, applicantIDs(ml.Entries))
			assert.Equal(t, tt.wantCounts, ml.Counts)
			assert.Contains(t, ml.Summary, "Academic Year: "+year)
		})
	}

	_, err := env.Svc.GenerateMeritList(ctx, merit.Scope{AcademicYear: " "})
	assert.Equal(t, "academic_year", fieldOf(t, err))
}

func TestService_GenerateMeritList_defaultMinimumScore(t *testing.T) {
	env := testutil.NewEnv(t, func(s *settings.Settings) { s.DefaultMinimumScore = 85 })
	seed(t, env)

	ml, err := env.Svc.GenerateMeritList(ctx, merit.Scope{AcademicYear: year})
	require.NoError(t, err)
	assert.Equal(t, "app-g,app-b", applicantIDs(ml.Entries))
	assert.Equal(t, 85.0, ml.Scope.MinimumScore)
	assert.Contains(t, ml.Summary, "- Minimum Score: 85")
}

func TestService_RefreshRanking(t *testing.T) {
	env := testutil.NewEnv(t, func(s *settings.Settings) { s.AutoGenerateRankings = false })
	seed(t, env)

	for id, s := range stored(t, env) {
		assert.Zero(t, s.MeritRank, "%s is not ranked yet", id)
	}

	ml, err := env.Svc.RefreshRanking(ctx, merit.Scope{AcademicYear: year, Program: "BSc", Category: "Science"})
	require.NoError(t, err)
	assert.Equal(t, "app-a,app-c", applicantIDs(ml.Entries))
	assert.Equal(t, 2, ml.Entries[0].MeritRank, "ranked among the whole program")
	assert.Equal(t, 3, ml.Entries[1].MeritRank)

	subs := stored(t, env)
	assert.Equal(t, 1, subs["app-b"].MeritRank)
	assert.Zero(t, subs["app-g"].MeritRank, "other programs are left alone")
}

func TestService_RefreshRanking_pending(t *testing.T) {
	env := testutil.NewEnv(t, func(s *settings.Settings) { s.AutoGenerateRankings = false })
	seed(t, env)

	ml, err := env.Svc.RefreshRanking(ctx, merit.Scope{AcademicYear: year, Program: "BSc", IncludePending: true})
	require.NoError(t, err)
	assert.Equal(t, "app-d,app-b,app-a,app-c,app-f", applicantIDs(ml.Entries), "pending submissions are listed")

	subs := stored(t, env)
	assert.Equal(t, 1, subs["app-b"].MeritRank)
	assert.Equal(t, 2, subs["app-a"].MeritRank)
	assert.Equal(t, 3, subs["app-c"].MeritRank)
	assert.Zero(t, subs["app-d"].MeritRank, "not validated yet")
	assert.Zero(t, subs["app-f"].MeritRank, "rejected")
}

func TestService_DashboardCounts(t *testing.T) {
	env := testutil.NewEnv(t)
	seed(t, env)

	dc, err := env.Svc.DashboardCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, dc.Total)
	assert.Equal(t, 1, dc.Pending)
	assert.Equal(t, 4, dc.Validated)
	assert.Equal(t, 1, dc.Rejected)
	assert.Equal(t, "app-g,app-f,app-d,app-c,app-b,app-a", applicantIDs(dc.RecentSubmissions))
}

func TestService_QuerySubmissions(t *testing.T) {
	env := testutil.NewEnv(t)
	seed(t, env)

	subs, err := env.Svc.QuerySubmissions(ctx, merit.SubmissionFilter{Program: "BSc", DocStatus: merit.DocStatusPtr(merit.DocDraft)})
	require.NoError(t, err)
	assert.Equal(t, "app-e", applicantIDs(subs))

	subs, err = env.Svc.QuerySubmissions(ctx, merit.SubmissionFilter{ValidationStatus: merit.Validated, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, "app-g,app-c", applicantIDs(subs), "newest first")
}
