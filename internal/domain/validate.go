package domain

import "fmt"

// Validate checks that a reasoning response satisfies the ClinicalOutput
// contract: risk level must be one of the three known values and every
// marker must sit on the 0-10 scale.
func (o ClinicalOutput) Validate() error {
	switch o.Audit.RiskLevel {
	case RiskLow, RiskMedium, RiskHigh:
	default:
		return fmt.Errorf("unknown risk level %q", o.Audit.RiskLevel)
	}

	if err := checkScale("emotional_intensity", o.Markers.EmotionalIntensity); err != nil {
		return err
	}
	if err := checkScale("goal_progress", o.Markers.GoalProgress); err != nil {
		return err
	}
	if err := checkScale("risk_score", o.Markers.RiskScore); err != nil {
		return err
	}
	return nil
}

func checkScale(field string, value float64) error {
	if value < 0 || value > 10 {
		return fmt.Errorf("marker %s out of range: %v", field, value)
	}
	return nil
}
