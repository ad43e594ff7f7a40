package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/meritlist/core"
	"github.com/trezcool/meritlist/core/merit"
)

type meritRepository struct {
	db *meritTables
	tx *meritData // set inside RunInTx
}

var _ merit.Repository = (*meritRepository)(nil) // interface compliance check

func NewMeritRepository(db *DB) merit.Repository {
	return &meritRepository{db: db.merit}
}

// do runs `fn` on the transaction data, or on the committed data under lock.
func (repo *meritRepository) do(fn func(d *meritData) error) error {
	if repo.tx != nil {
		return fn(repo.tx)
	}
	repo.db.Lock()
	defer repo.db.Unlock()
	return fn(repo.db.data)
}

func (repo *meritRepository) RunInTx(_ context.Context, fn func(repo merit.Repository) error) error {
	if repo.tx != nil { // nested: join the running transaction
		return fn(repo)
	}

	repo.db.Lock()
	defer repo.db.Unlock()

	tx := repo.db.data.clone()
	if err := fn(&meritRepository{db: repo.db, tx: tx}); err != nil {
		return err
	}
	repo.db.data = tx
	return nil
}

func submissionIndex(d *meritData, id string) int {
	for i, s := range d.submissions {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func validationIndex(d *meritData, id string) int {
	for i, v := range d.validations {
		if v.ID == id {
			return i
		}
	}
	return -1
}

func (repo *meritRepository) CreateSubmission(_ context.Context, s merit.Submission) (merit.Submission, error) {
	err := repo.do(func(d *meritData) error {
		d.serial++
		s.ID = uuid.NewString()
		s.Serial = d.serial
		s = s.Clone()
		d.submissions = append(d.submissions, s)
		return nil
	})
	return s.Clone(), err
}

func (repo *meritRepository) GetSubmission(_ context.Context, id string) (merit.Submission, error) {
	var s merit.Submission
	err := repo.do(func(d *meritData) error {
		idx := submissionIndex(d, id)
		if idx < 0 {
			return merit.ErrSubmissionNotFound
		}
		s = d.submissions[idx].Clone()
		return nil
	})
	return s, err
}

func (repo *meritRepository) UpdateSubmission(_ context.Context, s merit.Submission) (merit.Submission, error) {
	err := repo.do(func(d *meritData) error {
		idx := submissionIndex(d, s.ID)
		if idx < 0 {
			return merit.ErrSubmissionNotFound
		}
		// immutable columns
		s.Serial = d.submissions[idx].Serial
		s.CreatedAt = d.submissions[idx].CreatedAt
		d.submissions[idx] = s.Clone()
		return nil
	})
	return s, err
}

func (repo *meritRepository) DeleteSubmission(_ context.Context, id string) error {
	return repo.do(func(d *meritData) error {
		idx := submissionIndex(d, id)
		if idx < 0 {
			return merit.ErrSubmissionNotFound
		}
		d.submissions = append(d.submissions[:idx], d.submissions[idx+1:]...)
		return nil
	})
}

func matchSubmission(s merit.Submission, f merit.SubmissionFilter) bool {
	switch {
	case f.ApplicantID != "" && s.ApplicantID != f.ApplicantID,
		f.AcademicYear != "" && s.AcademicYear != f.AcademicYear,
		f.Program != "" && s.Program != f.Program,
		f.Category != "" && s.Category != f.Category,
		f.MinimumScore != 0 && s.TotalScore < f.MinimumScore,
		f.DocStatus != nil && s.DocStatus != *f.DocStatus,
		f.SubmissionStatus != "" && s.SubmissionStatus != f.SubmissionStatus,
		f.ValidationStatus != "" && s.ValidationStatus != f.ValidationStatus:
		return false
	}
	return true
}

func submissionLess(a, b merit.Submission, ordering []core.DBOrdering) bool {
	for _, ord := range ordering {
		var cmp int
		switch ord.Field {
		case merit.FieldSerial:
			cmp = compareInt64(a.Serial, b.Serial)
		case merit.FieldCreatedAt:
			cmp = compareInt64(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano())
		case merit.FieldTotalScore:
			cmp = compareFloat(a.TotalScore, b.TotalScore)
		case merit.FieldPercentageScore:
			cmp = compareFloat(a.PercentageScore, b.PercentageScore)
		}
		if cmp != 0 {
			return (cmp < 0) == ord.Ascending
		}
	}
	return false
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (repo *meritRepository) QuerySubmissions(_ context.Context, filter merit.SubmissionFilter, ordering ...core.DBOrdering) ([]merit.Submission, error) {
	subs := make([]merit.Submission, 0)
	err := repo.do(func(d *meritData) error {
		for _, s := range d.submissions {
			if matchSubmission(s, filter) {
				subs = append(subs, s.Clone())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(ordering) > 0 {
		sort.SliceStable(subs, func(i, j int) bool { return submissionLess(subs[i], subs[j], ordering) })
	}
	if filter.Limit > 0 && len(subs) > filter.Limit {
		subs = subs[:filter.Limit]
	}
	return subs, nil
}

func (repo *meritRepository) CountSubmissions(ctx context.Context, filter merit.SubmissionFilter) (int, error) {
	filter.Limit = 0
	subs, err := repo.QuerySubmissions(ctx, filter)
	return len(subs), err
}

func (repo *meritRepository) SetRanks(_ context.Context, ranks []merit.RankUpdate) error {
	return repo.do(func(d *meritData) error {
		for _, r := range ranks {
			idx := submissionIndex(d, r.SubmissionID)
			if idx < 0 {
				return merit.ErrSubmissionNotFound
			}
			d.submissions[idx].MeritRank = r.MeritRank
			d.submissions[idx].CategoryRank = r.CategoryRank
		}
		return nil
	})
}

func (repo *meritRepository) SetDocumentVerification(_ context.Context, id string, status merit.DocumentStatus) error {
	return repo.do(func(d *meritData) error {
		idx := submissionIndex(d, id)
		if idx < 0 {
			return merit.ErrSubmissionNotFound
		}
		d.submissions[idx].DocumentVerificationStatus = status
		d.submissions[idx].UpdatedAt = merit.NowFunc().UTC()
		return nil
	})
}

func (repo *meritRepository) CreateValidation(_ context.Context, v merit.Validation) (merit.Validation, error) {
	err := repo.do(func(d *meritData) error {
		for _, existing := range d.validations {
			if existing.SubmissionID == v.SubmissionID {
				return merit.ErrValidationExists
			}
		}
		v.ID = uuid.NewString()
		d.validations = append(d.validations, v)
		return nil
	})
	return v, err
}

func (repo *meritRepository) GetValidation(_ context.Context, id string) (merit.Validation, error) {
	var v merit.Validation
	err := repo.do(func(d *meritData) error {
		idx := validationIndex(d, id)
		if idx < 0 {
			return merit.ErrValidationNotFound
		}
		v = d.validations[idx]
		return nil
	})
	return v, err
}

func (repo *meritRepository) GetValidationBySubmission(_ context.Context, submissionID string) (merit.Validation, error) {
	var v merit.Validation
	err := repo.do(func(d *meritData) error {
		for _, existing := range d.validations {
			if existing.SubmissionID == submissionID {
				v = existing
				return nil
			}
		}
		return merit.ErrValidationNotFound
	})
	return v, err
}

func (repo *meritRepository) UpdateValidation(_ context.Context, v merit.Validation) (merit.Validation, error) {
	err := repo.do(func(d *meritData) error {
		idx := validationIndex(d, v.ID)
		if idx < 0 {
			return merit.ErrValidationNotFound
		}
		v.CreatedAt = d.validations[idx].CreatedAt
		d.validations[idx] = v
		return nil
	})
	return v, err
}

func matchValidation(v merit.Validation, f merit.ValidationFilter) bool {
	switch {
	case f.SubmissionID != "" && v.SubmissionID != f.SubmissionID,
		f.DocStatus != nil && v.DocStatus != *f.DocStatus,
		!f.CreatedBefore.IsZero() && !v.CreatedAt.Before(f.CreatedBefore):
		return false
	}
	return true
}

func (repo *meritRepository) DeleteValidations(_ context.Context, filter merit.ValidationFilter) (int, error) {
	var deleted int
	err := repo.do(func(d *meritData) error {
		kept := d.validations[:0]
		for _, v := range d.validations {
			if matchValidation(v, filter) {
				deleted++
				continue
			}
			kept = append(kept, v)
		}
		d.validations = kept
		return nil
	})
	return deleted, err
}

func (repo *meritRepository) QueryValidations(_ context.Context, filter merit.ValidationFilter, ordering ...core.DBOrdering) ([]merit.Validation, error) {
	vals := make([]merit.Validation, 0)
	err := repo.do(func(d *meritData) error {
		for _, v := range d.validations {
			if matchValidation(v, filter) {
				vals = append(vals, v)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// validations are only ordered by creation time; insertion order breaks ties
	if len(ordering) > 0 && ordering[0].Field == merit.FieldCreatedAt {
		asc := ordering[0].Ascending
		if !asc {
			for i, j := 0, len(vals)-1; i < j; i, j = i+1, j-1 {
				vals[i], vals[j] = vals[j], vals[i]
			}
		}
		sort.SliceStable(vals, func(i, j int) bool {
			cmp := compareInt64(vals[i].CreatedAt.UnixNano(), vals[j].CreatedAt.UnixNano())
			if asc {
				return cmp < 0
			}
			return cmp > 0
		})
	}
	if filter.Limit > 0 && len(vals) > filter.Limit {
		vals = vals[:filter.Limit]
	}
	return vals, nil
}
