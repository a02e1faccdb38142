package broadcast

import (
	"time"

	alertdomain "github.com/smallbiznis/gridpulse/internal/alert/domain"
	consumptiondomain "github.com/smallbiznis/gridpulse/internal/consumption/domain"
)

type EventType string

const (
	EventConsumptionUpdate EventType = "consumption_update"
	EventAlert             EventType = "alert"
)

// TimestampLayout is ISO-8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Event is the frame delivered to every observer.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

type ConsumptionUpdate struct {
	HomeID    string  `json:"homeId"`
	Power     float64 `json:"power"`
	Timestamp string  `json:"timestamp"`
}

type AlertPayload struct {
	HomeID    string            `json:"homeId"`
	Level     alertdomain.Level `json:"level"`
	Value     float64           `json:"value"`
	Timestamp string            `json:"timestamp"`
}

func NewConsumptionUpdate(reading consumptiondomain.Reading) Event {
	return Event{
		Type: EventConsumptionUpdate,
		Payload: ConsumptionUpdate{
			HomeID:    reading.HomeID,
			Power:     reading.Power,
			Timestamp: FormatTimestamp(reading.Timestamp),
		},
	}
}

func NewAlert(alert *alertdomain.Alert) Event {
	return Event{
		Type: EventAlert,
		Payload: AlertPayload{
			HomeID:    alert.HomeID,
			Level:     alert.Type,
			Value:     alert.Value,
			Timestamp: FormatTimestamp(alert.Timestamp),
		},
	}
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
