package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/meritlist/core"
	"github.com/trezcool/meritlist/core/merit"
)

const (
	submissionColumns = `id, serial, applicant_id, applicant_name, applicant_email, academic_year, program, category,
	total_merit_score, maximum_possible_score, percentage_score, merit_grade, submission_status, validation_status,
	document_verification_status, supporting_documents, validated_by, validation_date, merit_rank, category_rank,
	admin_remarks, teacher_comments, docstatus, submission_date, created_at, updated_at`

	validationColumns = `id, submission_id, applicant_name, validator, validator_email, original_total_score,
	original_percentage, verified_total_score, verified_percentage, score_difference, percentage_difference,
	validation_comments, final_decision, docstatus, validation_date, created_at, updated_at`
)

var (
	submissionOrderFields = map[string]bool{
		merit.FieldSerial:          true,
		merit.FieldCreatedAt:       true,
		merit.FieldTotalScore:      true,
		merit.FieldPercentageScore: true,
	}
	validationOrderFields = map[string]bool{
		merit.FieldCreatedAt: true,
	}
)

type (
	submissionRow struct {
		ID                         string       `db:"id"`
		Serial                     int64        `db:"serial"`
		ApplicantID                string       `db:"applicant_id"`
		ApplicantName              string       `db:"applicant_name"`
		ApplicantEmail             string       `db:"applicant_email"`
		AcademicYear               string       `db:"academic_year"`
		Program                    string       `db:"program"`
		Category                   string       `db:"category"`
		TotalScore                 float64      `db:"total_merit_score"`
		MaximumPossibleScore       float64      `db:"maximum_possible_score"`
		PercentageScore            float64      `db:"percentage_score"`
		Grade                      string       `db:"merit_grade"`
		SubmissionStatus           string       `db:"submission_status"`
		ValidationStatus           string       `db:"validation_status"`
		DocumentVerificationStatus string       `db:"document_verification_status"`
		SupportingDocuments        string       `db:"supporting_documents"`
		ValidatedBy                string       `db:"validated_by"`
		ValidationDate             sql.NullTime `db:"validation_date"`
		MeritRank                  int          `db:"merit_rank"`
		CategoryRank               int          `db:"category_rank"`
		Remarks                    string       `db:"admin_remarks"`
		TeacherComments            string       `db:"teacher_comments"`
		DocStatus                  int          `db:"docstatus"`
		SubmissionDate             sql.NullTime `db:"submission_date"`
		CreatedAt                  time.Time    `db:"created_at"`
		UpdatedAt                  time.Time    `db:"updated_at"`
	}

	scoreRow struct {
		SubmissionID string  `db:"submission_id"`
		Position     int     `db:"position"`
		Subject      string  `db:"subject"`
		Score        float64 `db:"score"`
		MaximumScore float64 `db:"maximum_score"`
		Percentage   float64 `db:"percentage"`
		Grade        string  `db:"grade"`
	}

	validationRow struct {
		ID                   string       `db:"id"`
		SubmissionID         string       `db:"submission_id"`
		ApplicantName        string       `db:"applicant_name"`
		Validator            string       `db:"validator"`
		ValidatorEmail       string       `db:"validator_email"`
		OriginalTotalScore   float64      `db:"original_total_score"`
		OriginalPercentage   float64      `db:"original_percentage"`
		VerifiedTotalScore   float64      `db:"verified_total_score"`
		VerifiedPercentage   float64      `db:"verified_percentage"`
		ScoreDifference      float64      `db:"score_difference"`
		PercentageDifference float64      `db:"percentage_difference"`
		ValidationComments   string       `db:"validation_comments"`
		FinalDecision        string       `db:"final_decision"`
		DocStatus            int          `db:"docstatus"`
		ValidationDate       sql.NullTime `db:"validation_date"`
		CreatedAt            time.Time    `db:"created_at"`
		UpdatedAt            time.Time    `db:"updated_at"`
	}
)

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t.UTC(), Valid: !t.IsZero()}
}

func toSubmissionRow(s merit.Submission) submissionRow {
	return submissionRow{
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
		ValidationDate:             nullTime(s.ValidationDate),
		MeritRank:                  s.MeritRank,
		CategoryRank:               s.CategoryRank,
		Remarks:                    s.Remarks,
		TeacherComments:            s.TeacherComments,
		DocStatus:                  int(s.DocStatus),
		SubmissionDate:             nullTime(s.SubmissionDate),
		CreatedAt:                  s.CreatedAt.UTC(),
		UpdatedAt:                  s.UpdatedAt.UTC(),
	}
}

func (row submissionRow) submission(scores []merit.ScoreRecord) merit.Submission {
	return merit.Submission{
		ID:                         row.ID,
		Serial:                     row.Serial,
		ApplicantID:                row.ApplicantID,
		ApplicantName:              row.ApplicantName,
		ApplicantEmail:             row.ApplicantEmail,
		AcademicYear:               row.AcademicYear,
		Program:                    row.Program,
		Category:                   row.Category,
		Scores:                     scores,
		TotalScore:                 row.TotalScore,
		MaximumPossibleScore:       row.MaximumPossibleScore,
		PercentageScore:            row.PercentageScore,
		Grade:                      merit.Grade(row.Grade),
		SubmissionStatus:           merit.SubmissionStatus(row.SubmissionStatus),
		ValidationStatus:           merit.ValidationStatus(row.ValidationStatus),
		DocumentVerificationStatus: merit.DocumentStatus(row.DocumentVerificationStatus),
		SupportingDocuments:        row.SupportingDocuments,
		ValidatedBy:                row.ValidatedBy,
		ValidationDate:             row.ValidationDate.Time,
		MeritRank:                  row.MeritRank,
		CategoryRank:               row.CategoryRank,
		Remarks:                    row.Remarks,
		TeacherComments:            row.TeacherComments,
		DocStatus:                  merit.DocStatus(row.DocStatus),
		SubmissionDate:             row.SubmissionDate.Time,
		CreatedAt:                  row.CreatedAt,
		UpdatedAt:                  row.UpdatedAt,
	}
}

func toValidationRow(v merit.Validation) validationRow {
	return validationRow{
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
		ValidationDate:       nullTime(v.ValidationDate),
		CreatedAt:            v.CreatedAt.UTC(),
		UpdatedAt:            v.UpdatedAt.UTC(),
	}
}

func (row validationRow) validation() merit.Validation {
	return merit.Validation{
		ID:                   row.ID,
		SubmissionID:         row.SubmissionID,
		ApplicantName:        row.ApplicantName,
		Validator:            row.Validator,
		ValidatorEmail:       row.ValidatorEmail,
		OriginalTotalScore:   row.OriginalTotalScore,
		OriginalPercentage:   row.OriginalPercentage,
		VerifiedTotalScore:   row.VerifiedTotalScore,
		VerifiedPercentage:   row.VerifiedPercentage,
		ScoreDifference:      row.ScoreDifference,
		PercentageDifference: row.PercentageDifference,
		ValidationComments:   row.ValidationComments,
		FinalDecision:        merit.Decision(row.FinalDecision),
		DocStatus:            merit.DocStatus(row.DocStatus),
		ValidationDate:       row.ValidationDate.Time,
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
	}
}

// where builds a postgres WHERE clause with positional args.
type where struct {
	conds []string
	args  []interface{}
}

// add appends `cond`, whose "?" is replaced by the next positional placeholder.
func (w *where) add(cond string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.Replace(cond, "?", fmt.Sprintf("$%d", len(w.args)), 1))
}

func (w where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func submissionWhere(f merit.SubmissionFilter) where {
	var w where
	if f.ApplicantID != "" {
		w.add("applicant_id = ?", f.ApplicantID)
	}
	if f.AcademicYear != "" {
		w.add("academic_year = ?", f.AcademicYear)
	}
	if f.Program != "" {
		w.add("program = ?", f.Program)
	}
	if f.Category != "" {
		w.add("category = ?", f.Category)
	}
	if f.MinimumScore != 0 {
		w.add("total_merit_score >= ?", f.MinimumScore)
	}
	if f.DocStatus != nil {
		w.add("docstatus = ?", int(*f.DocStatus))
	}
	if f.SubmissionStatus != "" {
		w.add("submission_status = ?", string(f.SubmissionStatus))
	}
	if f.ValidationStatus != "" {
		w.add("validation_status = ?", string(f.ValidationStatus))
	}
	return w
}

func validationWhere(f merit.ValidationFilter) where {
	var w where
	if f.SubmissionID != "" {
		w.add("submission_id = ?", f.SubmissionID)
	}
	if f.DocStatus != nil {
		w.add("docstatus = ?", int(*f.DocStatus))
	}
	if !f.CreatedBefore.IsZero() {
		w.add("created_at < ?", f.CreatedBefore.UTC())
	}
	return w
}

// orderBy builds an ORDER BY clause from the allowed fields of `ordering`, ending with `tieBreak`.
func orderBy(ordering []core.DBOrdering, allowed map[string]bool, tieBreak string) string {
	orderList := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		if allowed[ord.Field] {
			orderList = append(orderList, ord.String())
		}
	}
	orderList = append(orderList, tieBreak)
	return " ORDER BY " + strings.Join(orderList, ", ")
}

func limit(n int) string {
	if n > 0 {
		return fmt.Sprintf(" LIMIT %d", n)
	}
	return ""
}

type meritRepository struct {
	db  *sqlx.DB
	ext sqlx.ExtContext // db, or the running transaction
}

var _ merit.Repository = (*meritRepository)(nil) // interface compliance check

func NewMeritRepository(db *sqlx.DB) merit.Repository {
	return &meritRepository{db: db, ext: db}
}

// trapNoRowsErr maps psql "no rows" err to `notFound`
func trapNoRowsErr(err error, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func (repo *meritRepository) RunInTx(ctx context.Context, fn func(repo merit.Repository) error) (err error) {
	if _, inTx := repo.ext.(*sqlx.Tx); inTx {
		return fn(repo)
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(&meritRepository{db: repo.db, ext: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func (repo *meritRepository) saveScores(ctx context.Context, s merit.Submission) error {
	if _, err := repo.ext.ExecContext(ctx, `DELETE FROM merit_subject_scores WHERE submission_id = $1`, s.ID); err != nil {
		return errors.Wrap(err, "deleting subject scores")
	}
	for pos, rec := range s.Scores {
		row := scoreRow{
			SubmissionID: s.ID,
			Position:     pos,
			Subject:      rec.Subject,
			Score:        rec.Score,
			MaximumScore: rec.MaximumScore,
			Percentage:   rec.Percentage,
			Grade:        string(rec.Grade),
		}
		_, err := sqlx.NamedExecContext(ctx, repo.ext, `INSERT INTO merit_subject_scores
			(submission_id, position, subject, score, maximum_score, percentage, grade)
			VALUES (:submission_id, :position, :subject, :score, :maximum_score, :percentage, :grade)`, row)
		if err != nil {
			return errors.Wrap(err, "inserting subject score")
		}
	}
	return nil
}

// loadScores returns the ordered scores of each of `ids`.
func (repo *meritRepository) loadScores(ctx context.Context, ids []string) (map[string][]merit.ScoreRecord, error) {
	scores := make(map[string][]merit.ScoreRecord, len(ids))
	if len(ids) == 0 {
		return scores, nil
	}

	var rows []scoreRow
	err := sqlx.SelectContext(ctx, repo.ext, &rows, `SELECT submission_id, position, subject, score, maximum_score, percentage, grade
		FROM merit_subject_scores WHERE submission_id = ANY($1) ORDER BY submission_id, position`, pq.Array(ids))
	if err != nil {
		return nil, errors.Wrap(err, "selecting subject scores")
	}
	for _, row := range rows {
		scores[row.SubmissionID] = append(scores[row.SubmissionID], merit.ScoreRecord{
			Subject:      row.Subject,
			Score:        row.Score,
			MaximumScore: row.MaximumScore,
			Percentage:   row.Percentage,
			Grade:        merit.Grade(row.Grade),
		})
	}
	return scores, nil
}

func (repo *meritRepository) CreateSubmission(ctx context.Context, s merit.Submission) (merit.Submission, error) {
	s.ID = uuid.New().String()
	query, args, err := sqlx.Named(`INSERT INTO merit_submissions (
		id, applicant_id, applicant_name, applicant_email, academic_year, program, category, total_merit_score,
		maximum_possible_score, percentage_score, merit_grade, submission_status, validation_status,
		document_verification_status, supporting_documents, validated_by, validation_date, merit_rank, category_rank,
		admin_remarks, teacher_comments, docstatus, submission_date, created_at, updated_at
	) VALUES (
		:id, :applicant_id, :applicant_name, :applicant_email, :academic_year, :program, :category, :total_merit_score,
		:maximum_possible_score, :percentage_score, :merit_grade, :submission_status, :validation_status,
		:document_verification_status, :supporting_documents, :validated_by, :validation_date, :merit_rank, :category_rank,
		:admin_remarks, :teacher_comments, :docstatus, :submission_date, :created_at, :updated_at
	) RETURNING serial`, toSubmissionRow(s))
	if err != nil {
		return merit.Submission{}, errors.Wrap(err, "binding submission")
	}

	err = repo.RunInTx(ctx, func(txRepo merit.Repository) error {
		tx := txRepo.(*meritRepository)
		if err := tx.ext.QueryRowxContext(ctx, tx.ext.Rebind(query), args...).Scan(&s.Serial); err != nil {
			return errors.Wrap(err, "inserting submission")
		}
		return tx.saveScores(ctx, s)
	})
	if err != nil {
		return merit.Submission{}, err
	}
	return s, nil
}

func (repo *meritRepository) GetSubmission(ctx context.Context, id string) (merit.Submission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return merit.Submission{}, merit.ErrSubmissionNotFound
	}

	var row submissionRow
	err := sqlx.GetContext(ctx, repo.ext, &row, `SELECT `+submissionColumns+` FROM merit_submissions WHERE id = $1`, id)
	if err != nil {
		return merit.Submission{}, trapNoRowsErr(err, merit.ErrSubmissionNotFound, "selecting submission")
	}
	scores, err := repo.loadScores(ctx, []string{id})
	if err != nil {
		return merit.Submission{}, err
	}
	return row.submission(scores[id]), nil
}

func (repo *meritRepository) UpdateSubmission(ctx context.Context, s merit.Submission) (merit.Submission, error) {
	err := repo.RunInTx(ctx, func(txRepo merit.Repository) error {
		tx := txRepo.(*meritRepository)
		res, err := sqlx.NamedExecContext(ctx, tx.ext, `UPDATE merit_submissions SET
			applicant_id = :applicant_id, applicant_name = :applicant_name, applicant_email = :applicant_email,
			academic_year = :academic_year, program = :program, category = :category,
			total_merit_score = :total_merit_score, maximum_possible_score = :maximum_possible_score,
			percentage_score = :percentage_score, merit_grade = :merit_grade, submission_status = :submission_status,
			validation_status = :validation_status, document_verification_status = :document_verification_status,
			supporting_documents = :supporting_documents, validated_by = :validated_by,
			validation_date = :validation_date, merit_rank = :merit_rank, category_rank = :category_rank,
			admin_remarks = :admin_remarks, teacher_comments = :teacher_comments, docstatus = :docstatus,
			submission_date = :submission_date, updated_at = :updated_at
			WHERE id = :id`, toSubmissionRow(s))
		if err != nil {
			return errors.Wrap(err, "updating submission")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return merit.ErrSubmissionNotFound
		}
		return tx.saveScores(ctx, s)
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
	// subject scores and validations cascade
	res, err := repo.ext.ExecContext(ctx, `DELETE FROM merit_submissions WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting submission")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return merit.ErrSubmissionNotFound
	}
	return nil
}

func (repo *meritRepository) QuerySubmissions(ctx context.Context, filter merit.SubmissionFilter, ordering ...core.DBOrdering) ([]merit.Submission, error) {
	w := submissionWhere(filter)
	query := `SELECT ` + submissionColumns + ` FROM merit_submissions` + w.String() +
		orderBy(ordering, submissionOrderFields, "serial ASC") + limit(filter.Limit)

	var rows []submissionRow
	if err := sqlx.SelectContext(ctx, repo.ext, &rows, query, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting submissions")
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	scores, err := repo.loadScores(ctx, ids)
	if err != nil {
		return nil, err
	}

	subs := make([]merit.Submission, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, row.submission(scores[row.ID]))
	}
	return subs, nil
}

func (repo *meritRepository) CountSubmissions(ctx context.Context, filter merit.SubmissionFilter) (int, error) {
	w := submissionWhere(filter)
	var n int
	if err := sqlx.GetContext(ctx, repo.ext, &n, `SELECT COUNT(*) FROM merit_submissions`+w.String(), w.args...); err != nil {
		return 0, errors.Wrap(err, "counting submissions")
	}
	return n, nil
}

func (repo *meritRepository) SetRanks(ctx context.Context, ranks []merit.RankUpdate) error {
	return repo.RunInTx(ctx, func(txRepo merit.Repository) error {
		tx := txRepo.(*meritRepository)
		for _, r := range ranks {
			res, err := tx.ext.ExecContext(ctx,
				`UPDATE merit_submissions SET merit_rank = $1, category_rank = $2 WHERE id = $3`,
				r.MeritRank, r.CategoryRank, r.SubmissionID)
			if err != nil {
				return errors.Wrap(err, "setting ranks")
			}
			if n, _ := res.RowsAffected(); n == 0 {
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
	res, err := repo.ext.ExecContext(ctx,
		`UPDATE merit_submissions SET document_verification_status = $1, updated_at = $2 WHERE id = $3`,
		string(status), merit.NowFunc().UTC(), id)
	if err != nil {
		return errors.Wrap(err, "setting document verification status")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return merit.ErrSubmissionNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return ok && pqErr.Code == "23505"
}

func (repo *meritRepository) CreateValidation(ctx context.Context, v merit.Validation) (merit.Validation, error) {
	v.ID = uuid.New().String()
	_, err := sqlx.NamedExecContext(ctx, repo.ext, `INSERT INTO merit_validations (`+validationColumns+`) VALUES (
		:id, :submission_id, :applicant_name, :validator, :validator_email, :original_total_score,
		:original_percentage, :verified_total_score, :verified_percentage, :score_difference, :percentage_difference,
		:validation_comments, :final_decision, :docstatus, :validation_date, :created_at, :updated_at
	)`, toValidationRow(v))
	if err != nil {
		if isUniqueViolation(err) {
			return merit.Validation{}, merit.ErrValidationExists
		}
		return merit.Validation{}, errors.Wrap(err, "inserting validation")
	}
	return v, nil
}

func (repo *meritRepository) getValidation(ctx context.Context, column, value string) (merit.Validation, error) {
	if _, err := uuid.Parse(value); err != nil {
		return merit.Validation{}, merit.ErrValidationNotFound
	}
	var row validationRow
	err := sqlx.GetContext(ctx, repo.ext, &row, `SELECT `+validationColumns+` FROM merit_validations WHERE `+column+` = $1`, value)
	if err != nil {
		return merit.Validation{}, trapNoRowsErr(err, merit.ErrValidationNotFound, "selecting validation")
	}
	return row.validation(), nil
}

func (repo *meritRepository) GetValidation(ctx context.Context, id string) (merit.Validation, error) {
	return repo.getValidation(ctx, "id", id)
}

func (repo *meritRepository) GetValidationBySubmission(ctx context.Context, submissionID string) (merit.Validation, error) {
	return repo.getValidation(ctx, "submission_id", submissionID)
}

func (repo *meritRepository) UpdateValidation(ctx context.Context, v merit.Validation) (merit.Validation, error) {
	res, err := sqlx.NamedExecContext(ctx, repo.ext, `UPDATE merit_validations SET
		applicant_name = :applicant_name, validator = :validator, validator_email = :validator_email,
		original_total_score = :original_total_score, original_percentage = :original_percentage,
		verified_total_score = :verified_total_score, verified_percentage = :verified_percentage,
		score_difference = :score_difference, percentage_difference = :percentage_difference,
		validation_comments = :validation_comments, final_decision = :final_decision, docstatus = :docstatus,
		validation_date = :validation_date, updated_at = :updated_at
		WHERE id = :id`, toValidationRow(v))
	if err != nil {
		return merit.Validation{}, errors.Wrap(err, "updating validation")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return merit.Validation{}, merit.ErrValidationNotFound
	}
	return v, nil
}

func (repo *meritRepository) DeleteValidations(ctx context.Context, filter merit.ValidationFilter) (int, error) {
	w := validationWhere(filter)
	res, err := repo.ext.ExecContext(ctx, `DELETE FROM merit_validations`+w.String(), w.args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting validations")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "deleting validations")
}

func (repo *meritRepository) QueryValidations(ctx context.Context, filter merit.ValidationFilter, ordering ...core.DBOrdering) ([]merit.Validation, error) {
	w := validationWhere(filter)
	query := `SELECT ` + validationColumns + ` FROM merit_validations` + w.String() +
		orderBy(ordering, validationOrderFields, "id ASC") + limit(filter.Limit)

	var rows []validationRow
	if err := sqlx.SelectContext(ctx, repo.ext, &rows, query, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting validations")
	}
	vals := make([]merit.Validation, 0, len(rows))
	for _, row := range rows {
		vals = append(vals, row.validation())
	}
	return vals, nil
}
