package merit

type Grade string

const (
	GradeNone  Grade = ""
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeBPlus Grade = "B+"
	GradeB     Grade = "B"
	GradeCPlus Grade = "C+"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
	GradeF     Grade = "F"
)

// gradeTable is ordered from the highest lower bound down.
var gradeTable = []struct {
	min   float64
	grade Grade
}{
	{95, GradeAPlus},
	{90, GradeA},
	{85, GradeBPlus},
	{80, GradeB},
	{75, GradeCPlus},
	{70, GradeC},
	{60, GradeD},
}

// GradeFor maps a percentage to its grade. An unset (zero) percentage has no grade.
func GradeFor(percentage float64) Grade {
	if percentage == 0 {
		return GradeNone
	}
	for _, row := range gradeTable {
		if percentage >= row.min {
			return row.grade
		}
	}
	return GradeF
}
