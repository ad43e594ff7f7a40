package merit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMeritList(t *testing.T) {
	pop := population()
	statuses := map[string]ValidationStatus{"a": ValidationPending, "b": Validated, "c": Validated, "d": ValidationRejected}
	for i := range pop {
		pop[i].ValidationStatus = statuses[pop[i].ID]
		pop[i].MeritRank = 7
	}
	generatedAt := time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name       string
		scope      Scope
		wantIDs    string
		wantCounts ListCounts
		wantCats   []CategoryCount
	}{
		{
			name:       "all",
			scope:      Scope{AcademicYear: "2024-2025"},
			wantIDs:    "b,d,c,a",
			wantCounts: ListCounts{Total: 4, Validated: 2, Pending: 2},
			wantCats:   []CategoryCount{{Name: DefaultCategory, Count: 2}, {Name: "Science", Count: 2}},
		},
		{
			name:       "truncated",
			scope:      Scope{AcademicYear: "2024-2025", MaximumResults: 3},
			wantIDs:    "b,d,c",
			wantCounts: ListCounts{Total: 3, Validated: 2, Pending: 1},
			wantCats:   []CategoryCount{{Name: DefaultCategory, Count: 2}, {Name: "Science", Count: 1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ml, err := BuildMeritList(pop, tt.scope, generatedAt)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, ids(ml.Entries))
			assert.Equal(t, tt.wantCounts, ml.Counts)
			assert.Equal(t, tt.wantCats, ml.Categories)
			for _, s := range ml.Entries {
				assert.Equal(t, 7, s.MeritRank, "stored ranks are kept")
			}
		})
	}
	assert.Equal(t, "a", pop[0].ID, "input order is kept")
}

func TestBuildMeritList_summary(t *testing.T) {
	scope := Scope{AcademicYear: "2024-2025", Program: "BSc", MinimumScore: 50, MaximumResults: 10}
	ml, err := BuildMeritList(population(), scope, time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	for _, want := range []string{
		"Generated On: 2024-07-01 09:30:00",
		"Total Submissions: 4",
		"Validated: 0",
		"- General: 2",
		"- Science: 2",
		"- Academic Year: 2024-2025",
		"- Program: BSc",
		"- Minimum Score: 50",
		"- Maximum Results: 10",
	} {
		assert.Contains(t, ml.Summary, want)
	}
	assert.NotContains(t, ml.Summary, "- Category:")
}

func TestBuildMeritList_empty(t *testing.T) {
	ml, err := BuildMeritList(nil, Scope{AcademicYear: "2024-2025"}, time.Now())
	require.NoError(t, err)
	assert.Empty(t, ml.Entries)
	assert.Empty(t, ml.Categories)
	assert.NotContains(t, ml.Summary, "Category Breakdown")
}
