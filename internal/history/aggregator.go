// Package history derives longitudinal trend analytics from saved
// session records. Everything here is a pure function of its input.
package history

import (
	"sort"
	"time"

	"clinicalintel/internal/domain"
)

// riskAlertThreshold marks a session as an alert when its risk score is
// strictly above this value.
const riskAlertThreshold = 5

// TrendPoint is one session projected for time-series charting.
type TrendPoint struct {
	Timestamp          time.Time `json:"timestamp"`
	EmotionalIntensity float64   `json:"emotional_intensity"`
	GoalProgress       float64   `json:"goal_progress"`
	RiskScore          float64   `json:"risk_score"`
}

// TrendSummary aggregates a client's session history.
type TrendSummary struct {
	SessionCount              int          `json:"sessionCount"`
	AverageEmotionalIntensity float64      `json:"averageEmotionalIntensity"`
	AverageGoalProgress       float64      `json:"averageGoalProgress"`
	RiskAlertCount            int          `json:"riskAlertCount"`
	Series                    []TrendPoint `json:"series"`
}

// Aggregate computes trend statistics and a chronologically ordered series
// from an unordered set of historical sessions. Averages are 0 for an
// empty input; records with equal timestamps keep their relative order.
func Aggregate(records []domain.HistoricalSession) TrendSummary {
	summary := TrendSummary{
		SessionCount: len(records),
		Series:       make([]TrendPoint, 0, len(records)),
	}

	var intensitySum, progressSum float64
	for _, rec := range records {
		intensitySum += rec.Markers.EmotionalIntensity
		progressSum += rec.Markers.GoalProgress
		if rec.Markers.RiskScore > riskAlertThreshold {
			summary.RiskAlertCount++
		}
		summary.Series = append(summary.Series, TrendPoint{
			Timestamp:          rec.CreatedAt,
			EmotionalIntensity: rec.Markers.EmotionalIntensity,
			GoalProgress:       rec.Markers.GoalProgress,
			RiskScore:          rec.Markers.RiskScore,
		})
	}

	if len(records) > 0 {
		summary.AverageEmotionalIntensity = intensitySum / float64(len(records))
		summary.AverageGoalProgress = progressSum / float64(len(records))
	}

	sort.SliceStable(summary.Series, func(i, j int) bool {
		return summary.Series[i].Timestamp.Before(summary.Series[j].Timestamp)
	})

	return summary
}
