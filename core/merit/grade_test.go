package merit

import "testing"

func TestGradeFor(t *testing.T) {
	tests := []struct {
		pct  float64
		want Grade
	}{
		{0, GradeNone},
		{100, GradeAPlus},
		{95, GradeAPlus},
		{94.99, GradeA},
		{90, GradeA},
		{89.99, GradeBPlus},
		{85, GradeBPlus},
		{80, GradeB},
		{75, GradeCPlus},
		{70, GradeC},
		{69.99, GradeD},
		{60, GradeD},
		{59.99, GradeF},
		{0.01, GradeF},
		{-5, GradeF},
	}
	for _, tt := range tests {
		if got := GradeFor(tt.pct); got != tt.want {
			t.Errorf("GradeFor(%v) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}

func TestNewScoreRecord(t *testing.T) {
	tests := []struct {
		name      string
		score     float64
		max       float64
		wantPct   float64
		wantGrade Grade
	}{
		{name: "graded", score: 45, max: 50, wantPct: 90, wantGrade: GradeA},
		{name: "rounded", score: 2, max: 3, wantPct: 66.67, wantGrade: GradeD},
		{name: "zero score", score: 0, max: 50, wantPct: 0, wantGrade: GradeNone},
		{name: "zero maximum", score: 10, max: 0, wantPct: 0, wantGrade: GradeNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewScoreRecord("Math", tt.score, tt.max)
			if rec.Percentage != tt.wantPct {
				t.Errorf("Percentage = %v, want %v", rec.Percentage, tt.wantPct)
			}
			if rec.Grade != tt.wantGrade {
				t.Errorf("Grade = %q, want %q", rec.Grade, tt.wantGrade)
			}
		})
	}
}

func TestScoreRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rec     ScoreRecord
		wantErr bool
	}{
		{name: "valid", rec: NewScoreRecord("Math", 40, 50)},
		{name: "full marks", rec: NewScoreRecord("Math", 50, 50)},
		{name: "negative", rec: NewScoreRecord("Math", -1, 50), wantErr: true},
		{name: "above maximum", rec: NewScoreRecord("Math", 51, 50), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !isValidationError(err) {
				t.Errorf("Validate() error = %T, want *core.ValidationError", err)
			}
		})
	}
}
