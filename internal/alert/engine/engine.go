// Package engine decides whether a reading raises an alert.
package engine

import (
	"strconv"

	"github.com/smallbiznis/gridpulse/internal/alert/domain"
	"github.com/smallbiznis/gridpulse/internal/alert/threshold"
	consumptiondomain "github.com/smallbiznis/gridpulse/internal/consumption/domain"
)

// Engine is stateless across calls: there is no per-home memory and no
// cooldown, so every breaching reading yields its own alert.
type Engine struct {
	thresholds threshold.Evaluator
}

func New(thresholds threshold.Evaluator) *Engine {
	if thresholds == nil {
		thresholds = threshold.Static(threshold.Default())
	}
	return &Engine{thresholds: thresholds}
}

// Evaluate returns the level and, when it is not NONE, the alert to persist
// and broadcast. The returned alert has no id yet.
func (e *Engine) Evaluate(reading consumptiondomain.Reading) (domain.Level, *domain.Alert) {
	level := e.thresholds.Snapshot().Classify(reading.Power)
	if level == domain.LevelNone {
		return level, nil
	}
	return level, &domain.Alert{
		HomeID:    reading.HomeID,
		Type:      level,
		Value:     reading.Power,
		Message:   Message(level, reading.Power),
		Timestamp: reading.Timestamp,
	}
}

// Message renders the human readable alert text using the shortest decimal
// form of power, so 1300.00 reads as 1300W.
func Message(level domain.Level, power float64) string {
	value := strconv.FormatFloat(power, 'f', -1, 64) + "W"
	switch level {
	case domain.LevelHigh:
		return "High consumption detected: " + value
	case domain.LevelLow:
		return "Low consumption detected: " + value
	default:
		return ""
	}
}
