// Package domain contains threshold alerts derived from consumption readings.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Level classifies a power value against the configured thresholds.
type Level string

const (
	LevelNone Level = "NONE"
	LevelHigh Level = "HIGH"
	LevelLow  Level = "LOW"
)

// Alert is raised once per reading whose level is not NONE.
type Alert struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	HomeID    string       `gorm:"type:varchar(64);not null;index:idx_alerts_home_ts,priority:1" json:"homeId"`
	Type      Level        `gorm:"type:varchar(8);not null" json:"type"`
	Value     float64      `gorm:"not null" json:"value"`
	Message   string       `gorm:"type:text;not null" json:"message"`
	Timestamp time.Time    `gorm:"not null;index:idx_alerts_home_ts,priority:2;index:idx_alerts_ts" json:"timestamp"`
}

// TableName sets the database table name.
func (Alert) TableName() string { return "alerts" }
