package merit

import (
	"context"
	"strings"
	"text/template"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/meritlist/core"
)

const recentSubmissionsLimit = 10

var summaryTmpl = template.Must(template.New("summary").Parse(
	`Merit List Summary
Generated On: {{ .GeneratedAt.Format "2006-01-02 15:04:05" }}
Total Submissions: {{ .Counts.Total }}
Validated: {{ .Counts.Validated }}
Pending Validation: {{ .Counts.Pending }}
{{ with .Categories }}
Category Breakdown:
{{- range . }}
- {{ .Name }}: {{ .Count }}
{{- end }}
{{ end }}
Applied Filters:
- Academic Year: {{ .Scope.AcademicYear }}
{{- with .Scope.Program }}
- Program: {{ . }}
{{- end }}
{{- with .Scope.Category }}
- Category: {{ . }}
{{- end }}
{{- if gt .Scope.MinimumScore 0.0 }}
- Minimum Score: {{ .Scope.MinimumScore }}
{{- end }}
{{- if gt .Scope.MaximumResults 0 }}
- Maximum Results: {{ .Scope.MaximumResults }}
{{- end }}
`))

type (
	ListCounts struct {
		Total     int `json:"total"`
		Validated int `json:"validated"`
		Pending   int `json:"pending"` // not validated, rejected included
	}

	CategoryCount struct {
		Name  string `json:"category"`
		Count int    `json:"count"`
	}

	// MeritList is the ordered result of a merit list generation.
	MeritList struct {
		Entries     []Submission    `json:"entries"`
		Counts      ListCounts      `json:"counts"`
		Categories  []CategoryCount `json:"categories"` // in first-seen order
		Scope       Scope           `json:"scope"`
		GeneratedAt time.Time       `json:"generated_at"`
		Summary     string          `json:"summary"`
	}

	DashboardCounts struct {
		Total             int          `json:"total_submissions"`
		Pending           int          `json:"pending_validation"`
		Validated         int          `json:"validated_submissions"`
		Rejected          int          `json:"rejected_submissions"`
		RecentSubmissions []Submission `json:"recent_submissions"`
	}
)

func (ml *MeritList) summarize() error {
	var sb strings.Builder
	if err := summaryTmpl.Execute(&sb, ml); err != nil {
		return errors.Wrap(err, "rendering merit list summary")
	}
	ml.Summary = sb.String()
	return nil
}

// BuildMeritList orders `entries` by (total DESC, percentage DESC, creation ASC), applies the results limit
// and computes the list counts. Stored ranks are left as they are.
func BuildMeritList(entries []Submission, scope Scope, generatedAt time.Time) (MeritList, error) {
	ordered := make([]Submission, len(entries))
	copy(ordered, entries)
	sortByMerit(ordered)
	if scope.MaximumResults > 0 && len(ordered) > scope.MaximumResults {
		ordered = ordered[:scope.MaximumResults]
	}

	ml := MeritList{
		Entries:     ordered,
		Categories:  make([]CategoryCount, 0),
		Scope:       scope,
		GeneratedAt: generatedAt,
	}
	catIdx := make(map[string]int)
	for _, s := range ordered {
		ml.Counts.Total++
		if s.ValidationStatus == Validated {
			ml.Counts.Validated++
		}

		cat := s.CategoryOrDefault()
		if idx, ok := catIdx[cat]; ok {
			ml.Categories[idx].Count++
		} else {
			catIdx[cat] = len(ml.Categories)
			ml.Categories = append(ml.Categories, CategoryCount{Name: cat, Count: 1})
		}
	}
	ml.Counts.Pending = ml.Counts.Total - ml.Counts.Validated
	return ml, ml.summarize()
}

// GenerateMeritList lists the population selected by `scope` in merit order.
// The minimum score defaults to the configured one.
func (svc *Service) GenerateMeritList(ctx context.Context, scope Scope) (MeritList, error) {
	scope.AcademicYear = core.CleanString(scope.AcademicYear)
	scope.Program = core.CleanString(scope.Program)
	scope.Category = core.CleanString(scope.Category)
	if err := core.ValidateStruct(svc.validate, svc.translator, scope); err != nil {
		return MeritList{}, err
	}
	if scope.MinimumScore == 0 {
		scope.MinimumScore = svc.settings.Get(ctx).DefaultMinimumScore
	}

	entries, err := svc.repo.QuerySubmissions(ctx, scope.filter(), core.Asc(FieldSerial))
	if err != nil {
		return MeritList{}, errors.Wrap(err, "querying merit list")
	}
	return BuildMeritList(entries, scope, now())
}

// RefreshRanking re-ranks the whole eligible population of the scope's academic year and program,
// ignoring its category and minimum score, then regenerates the list for the full scope.
func (svc *Service) RefreshRanking(ctx context.Context, scope Scope) (MeritList, error) {
	scope.AcademicYear = core.CleanString(scope.AcademicYear)
	scope.Program = core.CleanString(scope.Program)
	if err := core.ValidateStruct(svc.validate, svc.translator, scope); err != nil {
		return MeritList{}, err
	}

	// only approved submissions are ranked, whatever the listed population
	rankScope := Scope{AcademicYear: scope.AcademicYear}
	if svc.settings.Get(ctx).ProgramRankingEnabled {
		rankScope.Program = scope.Program
	}
	if _, err := svc.Rank(ctx, rankScope); err != nil {
		return MeritList{}, err
	}
	return svc.GenerateMeritList(ctx, scope)
}

// DashboardCounts returns the committed submissions counts and the most recent committed submissions.
func (svc *Service) DashboardCounts(ctx context.Context) (DashboardCounts, error) {
	var (
		dc  DashboardCounts
		err error
	)
	committed := DocStatusPtr(DocCommitted)
	counts := []struct {
		dst    *int
		status ValidationStatus
	}{
		{&dc.Total, ""},
		{&dc.Pending, ValidationPending},
		{&dc.Validated, Validated},
		{&dc.Rejected, ValidationRejected},
	}
	for _, c := range counts {
		*c.dst, err = svc.repo.CountSubmissions(ctx, SubmissionFilter{DocStatus: committed, ValidationStatus: c.status})
		if err != nil {
			return DashboardCounts{}, errors.Wrap(err, "counting merit submissions")
		}
	}

	dc.RecentSubmissions, err = svc.repo.QuerySubmissions(ctx,
		SubmissionFilter{DocStatus: committed, Limit: recentSubmissionsLimit},
		core.Desc(FieldSerial),
	)
	if err != nil {
		return DashboardCounts{}, errors.Wrap(err, "querying recent merit submissions")
	}
	return dc, nil
}
