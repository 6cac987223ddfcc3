package records

import (
	"math"
	"testing"

	"github.com/tolgakaban/lgstakip/core"
)

func TestCalculateScore(t *testing.T) {
	turkceCoef := 4.348 // Türkçe

	tests := []struct {
		name     string
		results  ResultSet
		wantStr  string
		wantNet  string
		wantCalc float64
	}{
		{
			name:     "empty results yield the base score",
			results:  ResultSet{},
			wantStr:  "194.752",
			wantNet:  "0.00",
			wantCalc: BaseScore,
		},
		{
			name:     "nil results yield the base score",
			results:  nil,
			wantStr:  "194.752",
			wantNet:  "0.00",
			wantCalc: BaseScore,
		},
		{
			name: "single subject weighted by its coefficient",
			results: ResultSet{
				"Türkçe": {Correct: 18, Incorrect: 1, Empty: 1, Net: Net(18, 1)},
			},
			wantCalc: BaseScore + Net(18, 1)*turkceCoef,
		},
		{
			name: "unconfigured subjects are ignored",
			results: ResultSet{
				"Felsefe": {Net: 20},
			},
			wantStr:  "194.752",
			wantNet:  "0.00",
			wantCalc: BaseScore,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateScore(tt.results)
			if math.Abs(got.Score-tt.wantCalc) > 1e-9 {
				t.Errorf("CalculateScore() score = %v, want %v", got.Score, tt.wantCalc)
			}
			if tt.wantStr != "" && got.FormattedScore() != tt.wantStr {
				t.Errorf("FormattedScore() = %q, want %q", got.FormattedScore(), tt.wantStr)
			}
			if tt.wantNet != "" && got.FormattedNet() != tt.wantNet {
				t.Errorf("FormattedNet() = %q, want %q", got.FormattedNet(), tt.wantNet)
			}
		})
	}
}

func TestCalculateScoreAllSubjects(t *testing.T) {
	// full marks on every subject
	results := make(ResultSet, len(core.Subjects))
	want := BaseScore
	var wantNet float64
	for _, sub := range core.Subjects {
		results[sub.Name] = SubjectResult{Correct: sub.MaxQuestions, Net: float64(sub.MaxQuestions)}
		want += float64(sub.MaxQuestions) * sub.Coef
		wantNet += float64(sub.MaxQuestions)
	}

	got := CalculateScore(results)
	if math.Abs(got.Score-want) > 1e-9 {
		t.Errorf("CalculateScore() score = %v, want %v", got.Score, want)
	}
	if math.Abs(got.TotalNet-wantNet) > 1e-9 {
		t.Errorf("CalculateScore() totalNet = %v, want %v", got.TotalNet, wantNet)
	}
}

func TestNet(t *testing.T) {
	tests := []struct {
		correct, incorrect int
		want               float64
	}{
		{0, 0, 0},
		{10, 0, 10},
		{18, 1, 18 - 1.0/3},
		{0, 9, -3},
	}
	for _, tt := range tests {
		if got := Net(tt.correct, tt.incorrect); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Net(%d, %d) = %v, want %v", tt.correct, tt.incorrect, got, tt.want)
		}
	}
}

func TestBuildResults(t *testing.T) {
	results := BuildResults(map[string]NewExamResult{
		"Türkçe":    {Correct: 18, Incorrect: 1, Empty: 1},
		"Matematik": {Correct: 12, Incorrect: 6, Empty: 2},
	})

	if got, want := results["Türkçe"].Net, Net(18, 1); math.Abs(got-want) > 1e-9 {
		t.Errorf("Türkçe net = %v, want %v", got, want)
	}
	if got, want := results["Matematik"].Net, Net(12, 6); math.Abs(got-want) > 1e-9 {
		t.Errorf("Matematik net = %v, want %v", got, want)
	}
	if results["Türkçe"].Correct != 18 || results["Türkçe"].Incorrect != 1 || results["Türkçe"].Empty != 1 {
		t.Errorf("raw counts not preserved: %+v", results["Türkçe"])
	}
}
