package merit

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/meritlist/core"
)

// AssignRanks sorts `population` by (total DESC, percentage DESC) and sets the ranks of each submission.
// `population` must be in creation order: the sort is stable so that order breaks the remaining ties.
// Category ranks are left at 0 when `categoryRanking` is false.
func AssignRanks(population []Submission, categoryRanking bool) []Submission {
	ranked := make([]Submission, len(population))
	copy(ranked, population)
	sortByMerit(ranked)

	categoryRanks := make(map[string]int)
	for i := range ranked {
		ranked[i].MeritRank = i + 1
		ranked[i].CategoryRank = 0
		if categoryRanking {
			cat := ranked[i].CategoryOrDefault()
			categoryRanks[cat]++
			ranked[i].CategoryRank = categoryRanks[cat]
		}
	}
	return ranked
}

// sortByMerit stable-sorts `subs` by (total DESC, percentage DESC).
func sortByMerit(subs []Submission) {
	sort.SliceStable(subs, func(i, j int) bool {
		a, b := subs[i], subs[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		return a.PercentageScore > b.PercentageScore
	})
}

func rankUpdates(ranked []Submission) []RankUpdate {
	updates := make([]RankUpdate, 0, len(ranked))
	for _, s := range ranked {
		updates = append(updates, RankUpdate{SubmissionID: s.ID, MeritRank: s.MeritRank, CategoryRank: s.CategoryRank})
	}
	return updates
}

// rankLocks serializes rank runs per (academic year, program).
type rankLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *rankLocks) lock(scope Scope) func() {
	key := scope.AcademicYear + "\x00" + scope.Program

	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	m, ok := l.locks[key]
	if !ok {
		m = new(sync.Mutex)
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Rank computes the ranks of the population selected by `scope` and writes them back.
// Re-running it over an unchanged population writes the same ranks.
func (svc *Service) Rank(ctx context.Context, scope Scope) ([]Submission, error) {
	unlock := svc.rankLocks.lock(scope)
	defer unlock()

	conf := svc.settings.Get(ctx)
	var ranked []Submission

	err := svc.repo.RunInTx(ctx, func(repo Repository) error {
		population, err := repo.QuerySubmissions(ctx, scope.filter(), core.Asc(FieldSerial))
		if err != nil {
			return errors.Wrap(err, "querying ranking population")
		}
		ranked = AssignRanks(population, conf.CategoryRankingEnabled)
		if len(ranked) == 0 {
			return nil
		}
		return errors.Wrap(repo.SetRanks(ctx, rankUpdates(ranked)), "setting ranks")
	})
	if err != nil {
		return nil, err
	}
	return ranked, nil
}

// GetMeritRanking ranks the population selected by `scope` and returns it in rank order.
func (svc *Service) GetMeritRanking(ctx context.Context, scope Scope) ([]Submission, error) {
	if err := core.ValidateStruct(svc.validate, svc.translator, scope); err != nil {
		return nil, err
	}
	return svc.Rank(ctx, scope)
}
