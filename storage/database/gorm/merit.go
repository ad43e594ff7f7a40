package gormrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trezcool/meritlist/core"
	"github.com/trezcool/meritlist/core/merit"
)

type (
	submissionModel struct {
		ID                         string       `gorm:"column:id;type:uuid;primaryKey"`
		Serial                     int64        `gorm:"column:serial;->"` // assigned by the database
		ApplicantID                string       `gorm:"column:applicant_id"`
		ApplicantName              string       `gorm:"column:applicant_name"`
		ApplicantEmail             string       `gorm:"column:applicant_email"`
		AcademicYear               string       `gorm:"column:academic_year"`
		Program                    string       `gorm:"column:program"`
		Category                   string       `gorm:"column:category"`
		Scores                     []scoreModel `gorm:"foreignKey:SubmissionID;references:ID"`
		TotalScore                 float64      `gorm:"column:total_merit_score"`
		MaximumPossibleScore       float64      `gorm:"column:maximum_possible_score"`
		PercentageScore            float64      `gorm:"column:percentage_score"`
		Grade                      string       `gorm:"column:merit_grade"`
		SubmissionStatus           string       `gorm:"column:submission_status"`
		ValidationStatus           string       `gorm:"column:validation_status"`
		DocumentVerificationStatus string       `gorm:"column:document_verification_status"`
		SupportingDocuments        string       `gorm:"column:supporting_documents"`
		ValidatedBy                string       `gorm:"column:validated_by"`
		ValidationDate             *time.Time   `gorm:"column:validation_date"`
		MeritRank                  int          `gorm:"column:merit_rank"`
		CategoryRank               int          `gorm:"column:category_rank"`
		Remarks                    string       `gorm:"column:admin_remarks"`
		TeacherComments            string       `gorm:"column:teacher_comments"`
		DocStatus                  int          `gorm:"column:docstatus"`
		SubmissionDate             *time.Time   `gorm:"column:submission_date"`
		CreatedAt                  time.Time    `gorm:"column:created_at;autoCreateTime:false"`
		UpdatedAt                  time.Time    `gorm:"column:updated_at;autoUpdateTime:false"`
	}

	scoreModel struct {
		SubmissionID string  `gorm:"column:submission_id;type:uuid;primaryKey"`
		Position     int     `gorm:"column:position;primaryKey;autoIncrement:false"`
		Subject      string  `gorm:"column:subject"`
		Score        float64 `gorm:"column:score"`
		MaximumScore float64 `gorm:"column:maximum_score"`
		Percentage   float64 `gorm:"column:percentage"`
		Grade        string  `gorm:"column:grade"`
	}

	validationModel struct {
		ID                   string     `gorm:"column:id;type:uuid;primaryKey"`
		SubmissionID         string     `gorm:"column:submission_id;type:uuid"`
		ApplicantName        string     `gorm:"column:applicant_name"`
		Validator            string     `gorm:"column:validator"`
		ValidatorEmail       string     `gorm:"column:validator_email"`
		OriginalTotalScore   float64    `gorm:"column:original_total_score"`
		OriginalPercentage   float64    `gorm:"column:original_percentage"`
		VerifiedTotalScore   float64    `gorm:"column:verified_total_score"`
		VerifiedPercentage   float64    `gorm:"column:verified_percentage"`
		ScoreDifference      float64    `gorm:"column:score_difference"`
		PercentageDifference float64    `gorm:"column:percentage_difference"`
		ValidationComments   string     `gorm:"column:validation_comments"`
		FinalDecision        string     `gorm:"column:final_decision"`
		DocStatus            int        `gorm:"column:docstatus"`
		ValidationDate       *time.Time `gorm:"column:validation_date"`
		CreatedAt            time.Time  `gorm:"column:created_at;autoCreateTime:false"`
		UpdatedAt            time.Time  `gorm:"column:updated_at;autoUpdateTime:false"`
	}
)

func (submissionModel) TableName() string { return "merit_submissions" }
func (scoreModel) TableName() string      { return "merit_subject_scores" }
func (validationModel) TableName() string { return "merit_validations" }

// columns written by UpdateSubmission
var submissionUpdateColumns = []string{
	"applicant_id", "applicant_name", "applicant_email", "academic_year", "program", "category",
	"total_merit_score", "maximum_possible_score", "percentage_score", "merit_grade", "submission_status",
	"validation_status", "document_verification_status", "supporting_documents", "validated_by",
	"validation_date", "merit_rank", "category_rank", "admin_remarks", "teacher_comments", "docstatus",
	"submission_date", "updated_at",
}

var validationUpdateColumns = []string{
	"applicant_name", "validator", "validator_email", "original_total_score", "original_percentage",
	"verified_total_score", "verified_percentage", "score_difference", "percentage_difference",
	"validation_comments", "final_decision", "docstatus", "validation_date", "updated_at",
}

var submissionOrderFields = map[string]bool{
	merit.FieldSerial:          true,
	merit.FieldCreatedAt:       true,
	merit.FieldTotalScore:      true,
	merit.FieldPercentageScore: true,
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	t = t.UTC()
	return &t
}

func timeVal(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func toSubmissionModel(s merit.Submission) submissionModel {
	m := submissionModel{
		ID:                         s.ID,
		Serial:                     s.Serial,
		ApplicantID:                s.ApplicantID,
		ApplicantName:              s.ApplicantName,
		ApplicantEmail:             s.ApplicantEmail,
		AcademicYear:               s.AcademicYear,
		Program:                    s.Program,
		Category:                   s.Category,
		TotalScore:                 s.TotalScore,
		MaximumPossibleScore:       s.MaximumPossibleScore,
		PercentageScore:            s.PercentageScore,
		Grade:                      string(s.Grade),
		SubmissionStatus:           string(s.SubmissionStatus),
		ValidationStatus:           string(s.ValidationStatus),
		DocumentVerificationStatus: string(s.DocumentVerificationStatus),
		SupportingDocuments:        s.SupportingDocuments,
		ValidatedBy:                s.ValidatedBy,
		ValidationDate:             timePtr(s.ValidationDate),
		MeritRank:                  s.MeritRank,
		CategoryRank:               s.CategoryRank,
		Remarks:                    s.Remarks,
		TeacherComments:            s.TeacherComments,
		DocStatus:                  int(s.DocStatus),
		SubmissionDate:             timePtr(s.SubmissionDate),
		CreatedAt:                  s.CreatedAt.UTC(),
		UpdatedAt:                  s.UpdatedAt.UTC(),
	}
	for pos, rec := range s.Scores {
		m.Scores = append(m.Scores, scoreModel{
			SubmissionID: s.ID,
			Position:     pos,
			Subject:      rec.Subject,
			Score:        rec.Score,
			MaximumScore: rec.MaximumScore,
			Percentage:   rec.Percentage,
			Grade:        string(rec.Grade),
		})
	}
	return m
}

func (m submissionModel) submission() merit.Submission {
	s := merit.Submission{
		ID:                         m.ID,
		Serial:                     m.Serial,
		ApplicantID:                m.ApplicantID,
		ApplicantName:              m.ApplicantName,
		ApplicantEmail:             m.ApplicantEmail,
		AcademicYear:               m.AcademicYear,
		Program:                    m.Program,
		Category:                   m.Category,
		TotalScore:                 m.TotalScore,
		MaximumPossibleScore:       m.MaximumPossibleScore,
		PercentageScore:            m.PercentageScore,
		Grade:                      merit.Grade(m.Grade),
		SubmissionStatus:           merit.SubmissionStatus(m.SubmissionStatus),
		ValidationStatus:           merit.ValidationStatus(m.ValidationStatus),
		DocumentVerificationStatus: merit.DocumentStatus(m.DocumentVerificationStatus),
		SupportingDocuments:        m.SupportingDocuments,
		ValidatedBy:                m.ValidatedBy,
		ValidationDate:             timeVal(m.ValidationDate),
		MeritRank:                  m.MeritRank,
		CategoryRank:               m.CategoryRank,
		Remarks:                    m.Remarks,
		TeacherComments:            m.TeacherComments,
		DocStatus:                  merit.DocStatus(m.DocStatus),
		SubmissionDate:             timeVal(m.SubmissionDate),
		CreatedAt:                  m.CreatedAt,
		UpdatedAt:                  m.UpdatedAt,
	}
	for _, sm := range m.Scores {
		s.Scores = append(s.Scores, merit.ScoreRecord{
			Subject:      sm.Subject,
			Score:        sm.Score,
			MaximumScore: sm.MaximumScore,
			Percentage:   sm.Percentage,
			Grade:        merit.Grade(sm.Grade),
		})
	}
	return s
}

func toValidationModel(v merit.Validation) validationModel {
	return validationModel{
		ID:                   v.ID,
		SubmissionID:         v.SubmissionID,
		ApplicantName:        v.ApplicantName,
		Validator:            v.Validator,
		ValidatorEmail:       v.ValidatorEmail,
		OriginalTotalScore:   v.OriginalTotalScore,
		OriginalPercentage:   v.OriginalPercentage,
		VerifiedTotalScore:   v.VerifiedTotalScore,
		VerifiedPercentage:   v.VerifiedPercentage,
		ScoreDifference:      v.ScoreDifference,
		PercentageDifference: v.PercentageDifference,
		ValidationComments:   v.ValidationComments,
		FinalDecision:        string(v.FinalDecision),
		DocStatus:            int(v.DocStatus),
		ValidationDate:       timePtr(v.ValidationDate),
		CreatedAt:            v.CreatedAt.UTC(),
		UpdatedAt:            v.UpdatedAt.UTC(),
	}
}

func (m validationModel) validation() merit.Validation {
	return merit.Validation{
		ID:                   m.ID,
		SubmissionID:         m.SubmissionID,
		ApplicantName:        m.ApplicantName,
		Validator:            m.Validator,
		ValidatorEmail:       m.ValidatorEmail,
		OriginalTotalScore:   m.OriginalTotalScore,
		OriginalPercentage:   m.OriginalPercentage,
		VerifiedTotalScore:   m.VerifiedTotalScore,
		VerifiedPercentage:   m.VerifiedPercentage,
		ScoreDifference:      m.ScoreDifference,
		PercentageDifference: m.PercentageDifference,
		ValidationComments:   m.ValidationComments,
		FinalDecision:        merit.Decision(m.FinalDecision),
		DocStatus:            merit.DocStatus(m.DocStatus),
		ValidationDate:       timeVal(m.ValidationDate),
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

type meritRepository struct {
	db   *gorm.DB
	inTx bool
}

var _ merit.Repository = (*meritRepository)(nil) // interface compliance check

func NewMeritRepository(db *gorm.DB) merit.Repository {
	return &meritRepository{db: db}
}

func (repo *meritRepository) session(ctx context.Context) *gorm.DB {
	return repo.db.WithContext(ctx)
}

// trapNotFoundErr maps gorm "record not found" err to `notFound`
func trapNotFoundErr(err error, notFound error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func (repo *meritRepository) RunInTx(ctx context.Context, fn func(repo merit.Repository) error) error {
	if repo.inTx {
		return fn(repo)
	}
	return repo.session(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&meritRepository{db: tx, inTx: true})
	})
}

func (repo *meritRepository) replaceScores(tx *gorm.DB, m submissionModel) error {
	if err := tx.Where("submission_id = ?", m.ID).Delete(&scoreModel{}).Error; err != nil {
		return errors.Wrap(err, "deleting subject scores")
	}
	if len(m.Scores) == 0 {
		return nil
	}
	return errors.Wrap(tx.Create(&m.Scores).Error, "inserting subject scores")
}

func (repo *meritRepository) CreateSubmission(ctx context.Context, s merit.Submission) (merit.Submission, error) {
	s.ID = uuid.New().String()
	m := toSubmissionModel(s)

	err := repo.RunInTx(ctx, func(txRepo merit.Repository) error {
		tx := txRepo.(*meritRepository).session(ctx)
		if err := tx.Omit(clause.Associations).Create(&m).Error; err != nil {
			return errors.Wrap(err, "inserting submission")
		}
		if err := tx.Model(&submissionModel{}).Where("id = ?", m.ID).Pluck("serial", &s.Serial).Error; err != nil {
			return errors.Wrap(err, "reading submission serial")
		}
		return repo.replaceScores(tx, m)
	})
	if err != nil {
		return merit.Submission{}, err
	}
	return s, nil
}

func preloadScores(db *gorm.DB) *gorm.DB {
	return db.Preload("Scores", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })
}

func (repo *meritRepository) GetSubmission(ctx context.Context, id string) (merit.Submission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return merit.Submission{}, merit.ErrSubmissionNotFound
	}
	var m submissionModel
	if err := preloadScores(repo.session(ctx)).First(&m, "id = ?", id).Error; err != nil {
		return merit.Submission{}, trapNotFoundErr(err, merit.ErrSubmissionNotFound, "finding submission")
	}
	return m.submission(), nil
}

func (repo *meritRepository) UpdateSubmission(ctx context.Context, s merit.Submission) (merit.Submission, error) {
	m := toSubmissionModel(s)
	err := repo.RunInTx(ctx, func(txRepo merit.Repository) error {
		tx := txRepo.(*meritRepository).session(ctx)
		res := tx.Model(&submissionModel{ID: m.ID}).Select(submissionUpdateColumns).Updates(&m)
		if res.Error != nil {
			return errors.Wrap(res.Error, "updating submission")
		}
		if res.RowsAffected == 0 {
			return merit.ErrSubmissionNotFound
		}
		return repo.replaceScores(tx, m)
	})
	if err != nil {
		return merit.Submission{}, err
	}
	return s, nil
}

func (repo *meritRepository) DeleteSubmission(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return merit.ErrSubmissionNotFound
	}
	res := repo.session(ctx).Delete(&submissionModel{}, "id = ?", id)
	if res.Error != nil {
		return errors.Wrap(res.Error, "deleting submission")
	}
	if res.RowsAffected == 0 {
		return merit.ErrSubmissionNotFound
	}
	return nil
}

func filterSubmissions(db *gorm.DB, f merit.SubmissionFilter) *gorm.DB {
	if f.ApplicantID != "" {
		db = db.Where("applicant_id = ?", f.ApplicantID)
	}
	if f.AcademicYear != "" {
		db = db.Where("academic_year = ?", f.AcademicYear)
	}
	if f.Program != "" {
		db = db.Where("program = ?", f.Program)
	}
	if f.Category != "" {
		db = db.Where("category = ?", f.Category)
	}
	if f.MinimumScore != 0 {
		db = db.Where("total_merit_score >= ?", f.MinimumScore)
	}
	if f.DocStatus != nil {
		db = db.Where("docstatus = ?", int(*f.DocStatus))
	}
	if f.SubmissionStatus != "" {
		db = db.Where("submission_status = ?", string(f.SubmissionStatus))
	}
	if f.ValidationStatus != "" {
		db = db.Where("validation_status = ?", string(f.ValidationStatus))
	}
	return db
}

func (repo *meritRepository) QuerySubmissions(ctx context.Context, filter merit.SubmissionFilter, ordering ...core.DBOrdering) ([]merit.Submission, error) {
	db := filterSubmissions(preloadScores(repo.session(ctx)), filter)
	for _, ord := range ordering {
		if submissionOrderFields[ord.Field] {
			db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: ord.Field}, Desc: !ord.Ascending})
		}
	}
	db = db.Order("serial ASC")
	if filter.Limit > 0 {
		db = db.Limit(filter.Limit)
	}

	var models []submissionModel
	if err := db.Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	subs := make([]merit.Submission, 0, len(models))
	for _, m := range models {
		subs = append(subs, m.submission())
	}
	return subs, nil
}

func (repo *meritRepository) CountSubmissions(ctx context.Context, filter merit.SubmissionFilter) (int, error) {
	var n int64
	if err := filterSubmissions(repo.session(ctx).Model(&submissionModel{}), filter).Count(&n).Error; err != nil {
		return 0, errors.Wrap(err, "counting submissions")
	}
	return int(n), nil
}

func (repo *meritRepository) SetRanks(ctx context.Context, ranks []merit.RankUpdate) error {
	return repo.RunInTx(ctx, func(txRepo merit.Repository) error {
		tx := txRepo.(*meritRepository).session(ctx)
		for _, r := range ranks {
			res := tx.Model(&submissionModel{}).Where("id = ?", r.SubmissionID).
				UpdateColumns(map[string]interface{}{"merit_rank": r.MeritRank, "category_rank": r.CategoryRank})
			if res.Error != nil {
				return errors.Wrap(res.Error, "setting ranks")
			}
			if res.RowsAffected == 0 {
				return merit.ErrSubmissionNotFound
			}
		}
		return nil
	})
}

func (repo *meritRepository) SetDocumentVerification(ctx context.Context, id string, status merit.DocumentStatus) error {
	if _, err := uuid.Parse(id); err != nil {
		return merit.ErrSubmissionNotFound
	}
	res := repo.session(ctx).Model(&submissionModel{}).Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"document_verification_status": string(status),
			"updated_at":                   merit.NowFunc().UTC(),
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "setting document verification status")
	}
	if res.RowsAffected == 0 {
		return merit.ErrSubmissionNotFound
	}
	return nil
}

func (repo *meritRepository) CreateValidation(ctx context.Context, v merit.Validation) (merit.Validation, error) {
	v.ID = uuid.New().String()
	m := toValidationModel(v)
	if err := repo.session(ctx).Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return merit.Validation{}, merit.ErrValidationExists
		}
		return merit.Validation{}, errors.Wrap(err, "inserting validation")
	}
	return v, nil
}

func (repo *meritRepository) GetValidation(ctx context.Context, id string) (merit.Validation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return merit.Validation{}, merit.ErrValidationNotFound
	}
	var m validationModel
	if err := repo.session(ctx).First(&m, "id = ?", id).Error; err != nil {
		return merit.Validation{}, trapNotFoundErr(err, merit.ErrValidationNotFound, "finding validation")
	}
	return m.validation(), nil
}

func (repo *meritRepository) GetValidationBySubmission(ctx context.Context, submissionID string) (merit.Validation, error) {
	if _, err := uuid.Parse(submissionID); err != nil {
		return merit.Validation{}, merit.ErrValidationNotFound
	}
	var m validationModel
	if err := repo.session(ctx).First(&m, "submission_id = ?", submissionID).Error; err != nil {
		return merit.Validation{}, trapNotFoundErr(err, merit.ErrValidationNotFound, "finding validation")
	}
	return m.validation(), nil
}

func (repo *meritRepository) UpdateValidation(ctx context.Context, v merit.Validation) (merit.Validation, error) {
	m := toValidationModel(v)
	res := repo.session(ctx).Model(&validationModel{ID: m.ID}).Select(validationUpdateColumns).Updates(&m)
	if res.Error != nil {
		return merit.Validation{}, errors.Wrap(res.Error, "updating validation")
	}
	if res.RowsAffected == 0 {
		return merit.Validation{}, merit.ErrValidationNotFound
	}
	return v, nil
}

func filterValidations(db *gorm.DB, f merit.ValidationFilter) *gorm.DB {
	if f.SubmissionID != "" {
		db = db.Where("submission_id = ?", f.SubmissionID)
	}
	if f.DocStatus != nil {
		db = db.Where("docstatus = ?", int(*f.DocStatus))
	}
	if !f.CreatedBefore.IsZero() {
		db = db.Where("created_at < ?", f.CreatedBefore.UTC())
	}
	return db
}

func (repo *meritRepository) DeleteValidations(ctx context.Context, filter merit.ValidationFilter) (int, error) {
	// gorm refuses an unconditioned delete (ErrMissingWhereClause)
	res := filterValidations(repo.session(ctx), filter).Delete(&validationModel{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "deleting validations")
	}
	return int(res.RowsAffected), nil
}

func (repo *meritRepository) QueryValidations(ctx context.Context, filter merit.ValidationFilter, ordering ...core.DBOrdering) ([]merit.Validation, error) {
	db := filterValidations(repo.session(ctx), filter)
	for _, ord := range ordering {
		if ord.Field == merit.FieldCreatedAt {
			db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: ord.Field}, Desc: !ord.Ascending})
		}
	}
	db = db.Order("id ASC")
	if filter.Limit > 0 {
		db = db.Limit(filter.Limit)
	}

	var models []validationModel
	if err := db.Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "querying validations")
	}
	vals := make([]merit.Validation, 0, len(models))
	for _, m := range models {
		vals = append(vals, m.validation())
	}
	return vals, nil
}
