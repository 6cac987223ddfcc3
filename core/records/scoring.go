package records

import (
	"strconv"

	"github.com/tolgakaban/lgstakip/core"
)

// BaseScore is the LGS floor score every participant starts from.
const BaseScore = 194.752082

// Score is the output of the scoring engine.
type Score struct {
	Score    float64
	TotalNet float64
}

// FormattedScore renders the score to 3 decimal places.
func (s Score) FormattedScore() string {
	return strconv.FormatFloat(s.Score, 'f', 3, 64)
}

// FormattedNet renders the total net to 2 decimal places.
func (s Score) FormattedNet() string {
	return strconv.FormatFloat(s.TotalNet, 'f', 2, 64)
}

// Net computes a subject net: correct answers minus one third of incorrect
// answers.
func Net(correct, incorrect int) float64 {
	return float64(correct) - float64(incorrect)/3
}

// CalculateScore runs the weighted LGS formula over per-subject nets.
// Subjects absent from results contribute 0; keys that are not configured
// subjects are ignored.
func CalculateScore(results ResultSet) Score {
	s := Score{Score: BaseScore}
	for _, sub := range core.Subjects {
		res := results[sub.Name] // zero value when missing
		s.Score += res.Net * sub.Coef
		s.TotalNet += res.Net
	}
	return s
}

// BuildResults computes nets over raw submission counts.
func BuildResults(in map[string]NewExamResult) ResultSet {
	results := make(ResultSet, len(in))
	for name, res := range in {
		results[name] = SubjectResult{
			Correct:   res.Correct,
			Incorrect: res.Incorrect,
			Empty:     res.Empty,
			Net:       Net(res.Correct, res.Incorrect),
		}
	}
	return results
}
