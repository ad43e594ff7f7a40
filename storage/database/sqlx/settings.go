package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/meritlist/core/settings"
)

// settingsRow mirrors settings.Settings field by field so that both convert into each other.
type settingsRow struct {
	EnableMeritProcess                    bool    `db:"enable_merit_process"`
	MeritMandatory                        bool    `db:"merit_mandatory"`
	ValidationRequired                    bool    `db:"validation_required"`
	DocumentUploadMandatory               bool    `db:"document_upload_mandatory"`
	AutoApproveOnVerifiedDocs             bool    `db:"auto_approve_on_verified_docs"`
	DefaultMinimumScore                   float64 `db:"default_minimum_score"`
	MaxUploadMB                           int     `db:"max_upload_mb"`
	CategoryRankingEnabled                bool    `db:"category_ranking_enabled"`
	ProgramRankingEnabled                 bool    `db:"program_ranking_enabled"`
	AutoGenerateRankings                  bool    `db:"auto_generate_rankings"`
	NotifyOnSubmission                    bool    `db:"notify_on_submission"`
	NotifyOnValidation                    bool    `db:"notify_on_validation"`
	ReminderDays                          int     `db:"reminder_days"`
	AllowScoreModificationAfterValidation bool    `db:"allow_score_modification_after_validation"`
}

type settingsRepository struct {
	db *sqlx.DB
}

var _ settings.Repository = (*settingsRepository)(nil) // interface compliance check

func NewSettingsRepository(db *sqlx.DB) settings.Repository {
	return &settingsRepository{db: db}
}

func (repo *settingsRepository) GetSettings(ctx context.Context) (settings.Settings, error) {
	var row settingsRow
	err := repo.db.GetContext(ctx, &row, `SELECT enable_merit_process, merit_mandatory, validation_required,
		document_upload_mandatory, auto_approve_on_verified_docs, default_minimum_score, max_upload_mb,
		category_ranking_enabled, program_ranking_enabled, auto_generate_rankings, notify_on_submission,
		notify_on_validation, reminder_days, allow_score_modification_after_validation
		FROM merit_settings WHERE id = 1`)
	if err != nil {
		return settings.Settings{}, trapNoRowsErr(err, settings.ErrNotFound, "selecting settings")
	}
	return settings.Settings(row), nil
}

func (repo *settingsRepository) SaveSettings(ctx context.Context, s settings.Settings) error {
	_, err := repo.db.NamedExecContext(ctx, `INSERT INTO merit_settings (
		id, enable_merit_process, merit_mandatory, validation_required, document_upload_mandatory,
		auto_approve_on_verified_docs, default_minimum_score, max_upload_mb, category_ranking_enabled,
		program_ranking_enabled, auto_generate_rankings, notify_on_submission, notify_on_validation, reminder_days,
		allow_score_modification_after_validation, updated_at
	) VALUES (
		1, :enable_merit_process, :merit_mandatory, :validation_required, :document_upload_mandatory,
		:auto_approve_on_verified_docs, :default_minimum_score, :max_upload_mb, :category_ranking_enabled,
		:program_ranking_enabled, :auto_generate_rankings, :notify_on_submission, :notify_on_validation, :reminder_days,
		:allow_score_modification_after_validation, now()
	) ON CONFLICT (id) DO UPDATE SET
		enable_merit_process = EXCLUDED.enable_merit_process,
		merit_mandatory = EXCLUDED.merit_mandatory,
		validation_required = EXCLUDED.validation_required,
		document_upload_mandatory = EXCLUDED.document_upload_mandatory,
		auto_approve_on_verified_docs = EXCLUDED.auto_approve_on_verified_docs,
		default_minimum_score = EXCLUDED.default_minimum_score,
		max_upload_mb = EXCLUDED.max_upload_mb,
		category_ranking_enabled = EXCLUDED.category_ranking_enabled,
		program_ranking_enabled = EXCLUDED.program_ranking_enabled,
		auto_generate_rankings = EXCLUDED.auto_generate_rankings,
		notify_on_submission = EXCLUDED.notify_on_submission,
		notify_on_validation = EXCLUDED.notify_on_validation,
		reminder_days = EXCLUDED.reminder_days,
		allow_score_modification_after_validation = EXCLUDED.allow_score_modification_after_validation,
		updated_at = now()`, settingsRow(s))
	return errors.Wrap(err, "saving settings")
}
