// Package domain contains the consumption telemetry model and its query contracts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// UnitWatts is the only unit the pipeline produces.
const UnitWatts = "W"

// ConsumptionRecord stores one validated power sample for a home.
type ConsumptionRecord struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	HomeID    string       `gorm:"type:varchar(64);not null;index:idx_consumption_home_ts,priority:1" json:"homeId"`
	Power     float64      `gorm:"not null" json:"power"`
	Unit      string       `gorm:"type:varchar(8);not null;default:W" json:"unit"`
	Timestamp time.Time    `gorm:"not null;index:idx_consumption_home_ts,priority:2;index:idx_consumption_ts" json:"timestamp"`
}

// TableName sets the database table name.
func (ConsumptionRecord) TableName() string { return "consumption_records" }

// RawMessage is one inbound telemetry message before validation.
type RawMessage struct {
	Topic   string
	Payload []byte
	// CapturedAt is the source capture time; zero means arrival time.
	CapturedAt time.Time
	// Source names the transport that delivered the message (mqtt, http).
	Source string
}

// Reading is a validated power measurement.
type Reading struct {
	HomeID    string
	Power     float64
	Timestamp time.Time
}

// Record converts the reading into its persisted form.
func (r Reading) Record(id snowflake.ID) ConsumptionRecord {
	return ConsumptionRecord{
		ID:        id,
		HomeID:    r.HomeID,
		Power:     r.Power,
		Unit:      UnitWatts,
		Timestamp: r.Timestamp,
	}
}

// Statistics summarizes consumption over a trailing window.
type Statistics struct {
	TotalConsumption float64         `json:"totalConsumption"`
	AverageByHome    float64         `json:"averageByHome"`
	HighestConsumer  HighestConsumer `json:"highestConsumer"`
}

// HighestConsumer is the home with the greatest summed power. HomeID is nil
// when no home has consumed anything in the window.
type HighestConsumer struct {
	HomeID      *string `json:"homeId"`
	Consumption float64 `json:"consumption"`
}
