// Package threshold classifies power values into alert levels.
package threshold

import (
	"fmt"
	"math"

	"github.com/smallbiznis/gridpulse/internal/alert/domain"
)

const (
	DefaultHigh = 1200.0
	DefaultLow  = 250.0
)

// Thresholds is one immutable configuration snapshot.
type Thresholds struct {
	High float64 `mapstructure:"high" json:"highThreshold"`
	Low  float64 `mapstructure:"low" json:"lowThreshold"`
}

func Default() Thresholds {
	return Thresholds{High: DefaultHigh, Low: DefaultLow}
}

// Validate requires finite values with low strictly below high.
func (t Thresholds) Validate() error {
	if math.IsNaN(t.High) || math.IsInf(t.High, 0) || math.IsNaN(t.Low) || math.IsInf(t.Low, 0) {
		return fmt.Errorf("%w: thresholds must be finite", domain.ErrInvalidThresholds)
	}
	if t.Low >= t.High {
		return fmt.Errorf("%w: low %v must be below high %v", domain.ErrInvalidThresholds, t.Low, t.High)
	}
	return nil
}

// Classify uses strict inequalities, so values equal to a threshold are NONE.
func (t Thresholds) Classify(power float64) domain.Level {
	switch {
	case power > t.High:
		return domain.LevelHigh
	case power < t.Low:
		return domain.LevelLow
	default:
		return domain.LevelNone
	}
}

// Evaluator yields the thresholds in force for one classification.
type Evaluator interface {
	Snapshot() Thresholds
}

// Static is an Evaluator that never changes.
type Static Thresholds

func (s Static) Snapshot() Thresholds { return Thresholds(s) }
