package merit

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// population returns submissions in creation order:
// a(80, 80%, Science), b(90, 90%), c(80, 85%, Science), d(90, 90%).
func population() []Submission {
	mk := func(id string, serial int64, total, max float64, category string) Submission {
		s := Submission{ID: id, Serial: serial, TotalScore: total, MaximumPossibleScore: max, Category: category}
		s.FinalizePercentageAndGrade()
		return s
	}
	return []Submission{
		mk("a", 1, 80, 100, "Science"),
		mk("b", 2, 90, 100, ""),
		mk("c", 3, 80, 94.12, "Science"),
		mk("d", 4, 90, 100, ""),
	}
}

func ids(subs []Submission) string {
	out := make([]string, 0, len(subs))
	for _, s := range subs {
		out = append(out, s.ID)
	}
	return strings.Join(out, ",")
}

func TestAssignRanks(t *testing.T) {
	pop := population()
	require.Equal(t, 85.0, pop[2].PercentageScore)

	ranked := AssignRanks(pop, true)
	assert.Equal(t, "b,d,c,a", ids(ranked))

	want := []struct{ merit, category int }{{1, 1}, {2, 2}, {3, 1}, {4, 2}}
	for i, w := range want {
		assert.Equal(t, w.merit, ranked[i].MeritRank, "merit rank of %s", ranked[i].ID)
		assert.Equal(t, w.category, ranked[i].CategoryRank, "category rank of %s", ranked[i].ID)
	}

	for _, s := range pop {
		assert.Zero(t, s.MeritRank, "population is not modified")
	}
}

func TestAssignRanks_withoutCategoryRanking(t *testing.T) {
	pop := population()
	pop[0].CategoryRank = 9

	ranked := AssignRanks(pop, false)
	for i, s := range ranked {
		assert.Equal(t, i+1, s.MeritRank)
		assert.Zero(t, s.CategoryRank)
	}
}

func TestAssignRanks_idempotent(t *testing.T) {
	first := AssignRanks(population(), true)
	again := AssignRanks(first, true)
	assert.Equal(t, first, again)
}

func TestAssignRanks_empty(t *testing.T) {
	assert.Empty(t, AssignRanks(nil, true))
}

func Test_rankLocks(t *testing.T) {
	var locks rankLocks
	scope := Scope{AcademicYear: "2024-2025", Program: "BSc"}

	unlock := locks.lock(scope)
	acquired := make(chan struct{})
	go func() {
		defer close(acquired)
		locks.lock(scope)()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while the first is held")
	case <-time.After(20 * time.Millisecond):
	}

	// other scopes are not blocked
	locks.lock(Scope{AcademicYear: "2024-2025", Program: "MSc"})()

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock never acquired")
	}
}
