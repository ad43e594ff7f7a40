package gormrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trezcool/meritlist/core/settings"
)

const settingsID = 1

type settingsModel struct {
	ID                                    int       `gorm:"column:id;primaryKey;autoIncrement:false"`
	EnableMeritProcess                    bool      `gorm:"column:enable_merit_process"`
	MeritMandatory                        bool      `gorm:"column:merit_mandatory"`
	ValidationRequired                    bool      `gorm:"column:validation_required"`
	DocumentUploadMandatory               bool      `gorm:"column:document_upload_mandatory"`
	AutoApproveOnVerifiedDocs             bool      `gorm:"column:auto_approve_on_verified_docs"`
	DefaultMinimumScore                   float64   `gorm:"column:default_minimum_score"`
	MaxUploadMB                           int       `gorm:"column:max_upload_mb"`
	CategoryRankingEnabled                bool      `gorm:"column:category_ranking_enabled"`
	ProgramRankingEnabled                 bool      `gorm:"column:program_ranking_enabled"`
	AutoGenerateRankings                  bool      `gorm:"column:auto_generate_rankings"`
	NotifyOnSubmission                    bool      `gorm:"column:notify_on_submission"`
	NotifyOnValidation                    bool      `gorm:"column:notify_on_validation"`
	ReminderDays                          int       `gorm:"column:reminder_days"`
	AllowScoreModificationAfterValidation bool      `gorm:"column:allow_score_modification_after_validation"`
	UpdatedAt                             time.Time `gorm:"column:updated_at"`
}

func (settingsModel) TableName() string { return "merit_settings" }

func (m settingsModel) settings() settings.Settings {
	return settings.Settings{
		EnableMeritProcess:                    m.EnableMeritProcess,
		MeritMandatory:                        m.MeritMandatory,
		ValidationRequired:                    m.ValidationRequired,
		DocumentUploadMandatory:               m.DocumentUploadMandatory,
		AutoApproveOnVerifiedDocs:             m.AutoApproveOnVerifiedDocs,
		DefaultMinimumScore:                   m.DefaultMinimumScore,
		MaxUploadMB:                           m.MaxUploadMB,
		CategoryRankingEnabled:                m.CategoryRankingEnabled,
		ProgramRankingEnabled:                 m.ProgramRankingEnabled,
		AutoGenerateRankings:                  m.AutoGenerateRankings,
		NotifyOnSubmission:                    m.NotifyOnSubmission,
		NotifyOnValidation:                    m.NotifyOnValidation,
		ReminderDays:                          m.ReminderDays,
		AllowScoreModificationAfterValidation: m.AllowScoreModificationAfterValidation,
	}
}

func toSettingsModel(s settings.Settings) settingsModel {
	return settingsModel{
		ID:                                    settingsID,
		EnableMeritProcess:                    s.EnableMeritProcess,
		MeritMandatory:                        s.MeritMandatory,
		ValidationRequired:                    s.ValidationRequired,
		DocumentUploadMandatory:               s.DocumentUploadMandatory,
		AutoApproveOnVerifiedDocs:             s.AutoApproveOnVerifiedDocs,
		DefaultMinimumScore:                   s.DefaultMinimumScore,
		MaxUploadMB:                           s.MaxUploadMB,
		CategoryRankingEnabled:                s.CategoryRankingEnabled,
		ProgramRankingEnabled:                 s.ProgramRankingEnabled,
		AutoGenerateRankings:                  s.AutoGenerateRankings,
		NotifyOnSubmission:                    s.NotifyOnSubmission,
		NotifyOnValidation:                    s.NotifyOnValidation,
		ReminderDays:                          s.ReminderDays,
		AllowScoreModificationAfterValidation: s.AllowScoreModificationAfterValidation,
		UpdatedAt:                             time.Now().UTC(),
	}
}

type settingsRepository struct {
	db *gorm.DB
}

var _ settings.Repository = (*settingsRepository)(nil) // interface compliance check

func NewSettingsRepository(db *gorm.DB) settings.Repository {
	return &settingsRepository{db: db}
}

func (repo *settingsRepository) GetSettings(ctx context.Context) (settings.Settings, error) {
	var m settingsModel
	if err := repo.db.WithContext(ctx).First(&m, settingsID).Error; err != nil {
		return settings.Settings{}, trapNotFoundErr(err, settings.ErrNotFound, "selecting settings")
	}
	return m.settings(), nil
}

func (repo *settingsRepository) SaveSettings(ctx context.Context, s settings.Settings) error {
	m := toSettingsModel(s)
	err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(&m).Error
	return errors.Wrap(err, "saving settings")
}
