package records

import (
	"math"
	"strconv"

	"github.com/tolgakaban/lgstakip/core"
)

// Stats are the summary statistics derived from the cached records.
type Stats struct {
	TotalQuestions int     `json:"total_questions"`
	ExamAverage    float64 `json:"exam_average"`
	// StreakDays counts distinct dates with at least one log, not a true
	// consecutive-day streak. Kept as-is: changing it silently would alter
	// observable behavior.
	StreakDays     int `json:"streak_days"`
	CompletionRate int `json:"completion_rate"` // percent
}

// FormattedAverage renders the exam average to 1 decimal place.
func (s Stats) FormattedAverage() string {
	return strconv.FormatFloat(s.ExamAverage, 'f', 1, 64)
}

// SubjectStats aggregates study logs and exam nets for one subject.
type SubjectStats struct {
	Subject   string  `json:"subject"`
	Questions int     `json:"questions"`
	Correct   int     `json:"correct"`
	Accuracy  int     `json:"accuracy"` // percent
	ExamNet   float64 `json:"exam_net"` // average net over exams
}

func computeSubjectStats(exams []ExamRecord, logs []StudyLogEntry) []SubjectStats {
	perSubject := make([]SubjectStats, 0, len(core.Subjects))
	for _, sub := range core.Subjects {
		ss := SubjectStats{Subject: sub.Name}
		for _, l := range logs {
			if l.Subject == sub.Name {
				ss.Questions += l.Count
				ss.Correct += l.Correct
			}
		}
		if ss.Questions > 0 {
			ss.Accuracy = int(math.Round(float64(ss.Correct) / float64(ss.Questions) * 100))
		}
		var netSum float64
		var netCount int
		for _, e := range exams {
			if res, ok := e.Results[sub.Name]; ok {
				netSum += res.Net
				netCount++
			}
		}
		if netCount > 0 {
			ss.ExamNet = netSum / float64(netCount)
		}
		perSubject = append(perSubject, ss)
	}
	return perSubject
}

func computeStats(exams []ExamRecord, logs []StudyLogEntry) Stats {
	var stats Stats

	var totalCorrect int
	activeDates := make(map[string]struct{}, len(logs))
	for _, l := range logs {
		stats.TotalQuestions += l.Count
		totalCorrect += l.Correct
		activeDates[l.Date] = struct{}{}
	}
	stats.StreakDays = len(activeDates)

	if len(exams) > 0 {
		var sum float64
		for _, e := range exams {
			sum += e.TotalScore
		}
		stats.ExamAverage = sum / float64(len(exams))
	}

	if stats.TotalQuestions > 0 {
		stats.CompletionRate = int(math.Round(float64(totalCorrect) / float64(stats.TotalQuestions) * 100))
	}
	return stats
}
