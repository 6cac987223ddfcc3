package core

// Subject is a compile-time configured LGS subject. Immutable for the process
// lifetime.
type Subject struct {
	Name         string  `json:"name"`
	Coef         float64 `json:"coef"`
	Color        string  `json:"color"`
	MaxQuestions int     `json:"max_questions"`
}

// Subjects lists the LGS subjects in display order.
var Subjects = []Subject{
	{Name: "Türkçe", Coef: 4.348, Color: "#f59e0b", MaxQuestions: 20},
	{Name: "T.C. İnkılap Tarihi", Coef: 1.666, Color: "#f97316", MaxQuestions: 10},
	{Name: "Din Kültürü", Coef: 1.899, Color: "#06b6d4", MaxQuestions: 10},
	{Name: "Yabancı Dil", Coef: 1.5075, Color: "#8b5cf6", MaxQuestions: 10},
	{Name: "Matematik", Coef: 4.2538, Color: "#6366f1", MaxQuestions: 20},
	{Name: "Fen Bilimleri", Coef: 4.1230, Color: "#ec4899", MaxQuestions: 20},
}

var subjectsByName = func() map[string]Subject {
	m := make(map[string]Subject, len(Subjects))
	for _, sub := range Subjects {
		m[sub.Name] = sub
	}
	return m
}()

func SubjectByName(name string) (Subject, bool) {
	sub, ok := subjectsByName[name]
	return sub, ok
}

func IsSubjectName(name string) bool {
	_, ok := subjectsByName[name]
	return ok
}
