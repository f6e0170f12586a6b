// file: internals/features/mastery/lesson_scores/service/weight_selector_test.go
package service

import "testing"

func TestSelectWeights(t *testing.T) {
	tests := []struct {
		name          string
		hasQuiz       bool
		hasAssignment bool
		want          ComponentWeights
	}{
		{
			name: "tanpa asesmen",
			want: ComponentWeights{Reading: 0.50, Engagement: 0.50},
		},
		{
			name:    "quiz saja",
			hasQuiz: true,
			want:    ComponentWeights{Reading: 0.35, Engagement: 0.35, Quiz: 0.30, FailureCap: 65, HasFailureCap: true},
		},
		{
			name:          "assignment saja",
			hasAssignment: true,
			want:          ComponentWeights{Reading: 0.35, Engagement: 0.35, Assignment: 0.30, FailureCap: 65, HasFailureCap: true},
		},
		{
			name:          "quiz dan assignment",
			hasQuiz:       true,
			hasAssignment: true,
			want:          ComponentWeights{Reading: 0.25, Engagement: 0.25, Quiz: 0.25, Assignment: 0.25, FailureCap: 60, HasFailureCap: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectWeights(tt.hasQuiz, tt.hasAssignment)
			if got != tt.want {
				t.Errorf("SelectWeights(%v, %v) = %+v, want %+v", tt.hasQuiz, tt.hasAssignment, got, tt.want)
			}
		})
	}
}

func TestSelectWeightsSumsToOne(t *testing.T) {
	for _, hasQuiz := range []bool{false, true} {
		for _, hasAssignment := range []bool{false, true} {
			w := SelectWeights(hasQuiz, hasAssignment)
			sum := w.Reading + w.Engagement + w.Quiz + w.Assignment
			if sum < 0.999 || sum > 1.001 {
				t.Errorf("bobot (%v, %v) tidak berjumlah 1: %f", hasQuiz, hasAssignment, sum)
			}
		}
	}
}
