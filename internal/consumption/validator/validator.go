// Package validator turns raw telemetry messages into typed readings.
package validator

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/smallbiznis/gridpulse/internal/clock"
	"github.com/smallbiznis/gridpulse/internal/consumption/domain"
)

const (
	topicPrefix = "home"
	topicSuffix = "consumption"
)

// decimalPattern excludes the hex, underscore and Inf/NaN spellings that
// strconv.ParseFloat would otherwise accept.
var decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// Validator is stateless apart from the clock used to stamp arrival time.
type Validator struct {
	clock clock.Clock
}

func New(clk clock.Clock) *Validator {
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	return &Validator{clock: clk}
}

// Validate parses msg into a reading. Range checks are left to the alert
// engine, so negative and very large finite values pass.
func (v *Validator) Validate(msg domain.RawMessage) (domain.Reading, error) {
	homeID, err := HomeIDFromTopic(msg.Topic)
	if err != nil {
		return domain.Reading{}, err
	}
	power, err := ParsePower(msg.Payload)
	if err != nil {
		return domain.Reading{}, err
	}

	ts := msg.CapturedAt
	if ts.IsZero() {
		ts = v.clock.Now()
	}
	return domain.Reading{
		HomeID:    homeID,
		Power:     power,
		Timestamp: ts.UTC(),
	}, nil
}

// HomeIDFromTopic extracts the id from home/{id}/consumption.
func HomeIDFromTopic(topic string) (string, error) {
	parts := strings.Split(strings.TrimSpace(topic), "/")
	if len(parts) != 3 || parts[0] != topicPrefix || parts[2] != topicSuffix {
		return "", fmt.Errorf("%w: %q", domain.ErrMalformedTopic, topic)
	}
	homeID := strings.TrimSpace(parts[1])
	if homeID == "" || strings.ContainsAny(homeID, "+#") {
		return "", fmt.Errorf("%w: %q", domain.ErrMalformedTopic, topic)
	}
	return homeID, nil
}

// ParsePower parses a decimal payload into a finite float.
func ParsePower(payload []byte) (float64, error) {
	text := strings.TrimSpace(string(payload))
	if text == "" {
		return 0, fmt.Errorf("%w: empty payload", domain.ErrNotANumber)
	}
	if !decimalPattern.MatchString(text) {
		return 0, fmt.Errorf("%w: %q", domain.ErrNotANumber, truncate(text, 32))
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: %q", domain.ErrNotANumber, truncate(text, 32))
	}
	return value, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
