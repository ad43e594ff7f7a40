package echoapi

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/meritlist/core"
	"github.com/trezcool/meritlist/core/merit"
)

// bindErrors turns the failures of an echo.ValueBinder into a validation error.
func bindErrors(b *echo.ValueBinder) error {
	errs := b.BindErrors()
	if len(errs) == 0 {
		return nil
	}
	fields := make([]core.FieldError, 0, len(errs))
	for _, err := range errs {
		if berr, ok := err.(*echo.BindingError); ok {
			fields = append(fields, core.FieldError{Field: berr.Field, Error: fmt.Sprintf("%s: %v", berr.Field, berr.Message)})
			continue
		}
		return errors.Wrap(err, "binding query params")
	}
	return core.NewValidationError(nil, fields...)
}

var docStatusParams = map[string]merit.DocStatus{
	"0": merit.DocDraft, "draft": merit.DocDraft,
	"1": merit.DocCommitted, "committed": merit.DocCommitted,
	"2": merit.DocCancelled, "cancelled": merit.DocCancelled,
}

func docStatusParam(dest **merit.DocStatus) func(values []string) []error {
	return func(values []string) []error {
		status, ok := docStatusParams[strings.ToLower(core.CleanString(values[0]))]
		if !ok {
			return []error{echo.NewBindingError("docstatus", values, "must be one of draft, committed or cancelled", nil)}
		}
		*dest = merit.DocStatusPtr(status)
		return nil
	}
}

func nonNegative(name string, n int) []error {
	if n < 0 {
		return []error{echo.NewBindingError(name, []string{fmt.Sprint(n)}, "must be 0 or greater", nil)}
	}
	return nil
}

// bindSubmissionFilter reads a merit.SubmissionFilter from the query string.
func bindSubmissionFilter(ctx echo.Context) (merit.SubmissionFilter, error) {
	var (
		filter             merit.SubmissionFilter
		subStatus, vStatus string
	)
	b := echo.QueryParamsBinder(ctx).
		FailFast(false).
		String("applicant_id", &filter.ApplicantID).
		String("academic_year", &filter.AcademicYear).
		String("program", &filter.Program).
		String("category", &filter.Category).
		Float64("minimum_score", &filter.MinimumScore).
		String("submission_status", &subStatus).
		String("validation_status", &vStatus).
		Int("limit", &filter.Limit).
		CustomFunc("docstatus", docStatusParam(&filter.DocStatus)).
		CustomFunc("limit", func([]string) []error { return nonNegative("limit", filter.Limit) })
	if err := bindErrors(b); err != nil {
		return merit.SubmissionFilter{}, err
	}

	filter.ApplicantID = core.CleanString(filter.ApplicantID)
	filter.AcademicYear = core.CleanString(filter.AcademicYear)
	filter.Program = core.CleanString(filter.Program)
	filter.Category = core.CleanString(filter.Category)
	filter.SubmissionStatus = merit.SubmissionStatus(core.CleanString(subStatus))
	filter.ValidationStatus = merit.ValidationStatus(core.CleanString(vStatus))
	return filter, nil
}

// bindScope reads a merit.Scope from the query string.
func bindScope(ctx echo.Context) (merit.Scope, error) {
	var scope merit.Scope
	b := echo.QueryParamsBinder(ctx).
		FailFast(false).
		String("academic_year", &scope.AcademicYear).
		String("program", &scope.Program).
		String("category", &scope.Category).
		Float64("minimum_score", &scope.MinimumScore).
		Bool("include_pending", &scope.IncludePending).
		Int("maximum_results", &scope.MaximumResults)
	if err := bindErrors(b); err != nil {
		return merit.Scope{}, err
	}
	return scope, nil
}

// bindLimit reads the `limit` query param.
func bindLimit(ctx echo.Context) (int, error) {
	var limit int
	b := echo.QueryParamsBinder(ctx).
		FailFast(false).
		Int("limit", &limit).
		CustomFunc("limit", func([]string) []error { return nonNegative("limit", limit) })
	if err := bindErrors(b); err != nil {
		return 0, err
	}
	return limit, nil
}

// bindJSON binds the request body, reporting malformed payloads as validation errors.
func bindJSON(ctx echo.Context, dest interface{}) error {
	if err := ctx.Bind(dest); err != nil {
		if herr, ok := err.(*echo.HTTPError); ok {
			return core.NewValidationError(errors.Errorf("invalid request body: %v", herr.Message))
		}
		return errors.Wrap(err, "binding request body")
	}
	return nil
}
