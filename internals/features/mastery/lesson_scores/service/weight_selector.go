// file: internals/features/mastery/lesson_scores/service/weight_selector.go
package service

/* =========================================================
   WEIGHT SELECTOR
   Lookup murni: komposisi asesmen lesson → vektor bobot + cap gagal.
   Dipanggil setiap recompute, tanpa side effect.
========================================================= */

// AssessmentPresence: varian komposisi asesmen dalam satu lesson.
type AssessmentPresence int

const (
	PresenceNone AssessmentPresence = iota
	PresenceQuizOnly
	PresenceAssignmentOnly
	PresenceBoth
)

// ComponentWeights: bobot tiap komponen skor lesson.
// HasFailureCap=false hanya untuk lesson tanpa asesmen.
type ComponentWeights struct {
	Reading    float64
	Engagement float64
	Quiz       float64
	Assignment float64

	FailureCap    float64
	HasFailureCap bool
}

var weightTable = map[AssessmentPresence]ComponentWeights{
	PresenceNone:           {Reading: 0.50, Engagement: 0.50},
	PresenceQuizOnly:       {Reading: 0.35, Engagement: 0.35, Quiz: 0.30, FailureCap: 65, HasFailureCap: true},
	PresenceAssignmentOnly: {Reading: 0.35, Engagement: 0.35, Assignment: 0.30, FailureCap: 65, HasFailureCap: true},
	PresenceBoth:           {Reading: 0.25, Engagement: 0.25, Quiz: 0.25, Assignment: 0.25, FailureCap: 60, HasFailureCap: true},
}

func presenceOf(hasQuiz, hasAssignment bool) AssessmentPresence {
	switch {
	case hasQuiz && hasAssignment:
		return PresenceBoth
	case hasQuiz:
		return PresenceQuizOnly
	case hasAssignment:
		return PresenceAssignmentOnly
	default:
		return PresenceNone
	}
}

// SelectWeights mengembalikan bobot + failure cap untuk komposisi asesmen.
func SelectWeights(hasQuiz, hasAssignment bool) ComponentWeights {
	return weightTable[presenceOf(hasQuiz, hasAssignment)]
}
