package domain

import (
	"strings"
	"testing"
)

func validOutput() ClinicalOutput {
	return ClinicalOutput{
		StructuredNote: StructuredNote{
			Subjective:     "Client reports improved sleep.",
			Objective:      "Calm affect, engaged.",
			Assessment:     "Steady progress on anxiety goals.",
			Plan:           "Continue weekly sessions.",
			RiskAssessment: "No acute risk indicators.",
		},
		Audit: Audit{
			LiabilityFlags:       []string{},
			ClinicalClarityScore: 0.9,
			Suggestions:          []string{"Quantify sleep improvement."},
			RiskLevel:            RiskLow,
		},
		Markers: Markers{
			PrimaryThemes:      []string{"sleep", "anxiety"},
			EmotionalIntensity: 4,
			GoalProgress:       7,
			RiskScore:          1,
		},
	}
}

func TestClinicalOutputValidateAccepts(t *testing.T) {
	t.Parallel()

	if err := validOutput().Validate(); err != nil {
		t.Fatalf("expected valid output, got %v", err)
	}
}

func TestClinicalOutputValidateRejectsUnknownRiskLevel(t *testing.T) {
	t.Parallel()

	out := validOutput()
	out.Audit.RiskLevel = "Severe"
	err := out.Validate()
	if err == nil || !strings.Contains(err.Error(), "risk level") {
		t.Fatalf("expected risk level error, got %v", err)
	}
}

func TestClinicalOutputValidateRejectsMarkersOutOfRange(t *testing.T) {
	t.Parallel()

	cases := map[string]func(*ClinicalOutput){
		"emotional_intensity": func(o *ClinicalOutput) { o.Markers.EmotionalIntensity = 11 },
		"goal_progress":       func(o *ClinicalOutput) { o.Markers.GoalProgress = -0.5 },
		"risk_score":          func(o *ClinicalOutput) { o.Markers.RiskScore = 10.5 },
	}

	for name, mutate := range cases {
		name := name
		mutate := mutate
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			out := validOutput()
			mutate(&out)
			err := out.Validate()
			if err == nil || !strings.Contains(err.Error(), name) {
				t.Fatalf("expected %s range error, got %v", name, err)
			}
		})
	}
}
