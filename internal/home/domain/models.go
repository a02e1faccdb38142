// Package domain contains the registry of consumption sites.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Home is a registered consumption site. HomeID is immutable once created.
type Home struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	HomeID    string       `gorm:"type:varchar(64);not null;uniqueIndex:ux_homes_home_id" json:"homeId"`
	Address   string       `gorm:"type:text;not null;default:''" json:"address"`
	Owner     string       `gorm:"type:text;not null;default:''" json:"owner"`
	CreatedAt time.Time    `gorm:"not null" json:"createdAt"`
}

// TableName sets the database table name.
func (Home) TableName() string { return "homes" }

type CreateHomeRequest struct {
	HomeID  string `json:"homeId"`
	Address string `json:"address"`
	Owner   string `json:"owner"`
}

type Repository interface {
	Insert(ctx context.Context, home *Home) error
	BatchInsert(ctx context.Context, homes []*Home) error
	List(ctx context.Context) ([]*Home, error)
	FindByHomeID(ctx context.Context, homeID string) (*Home, error)
	Count(ctx context.Context) (int64, error)
}

type Service interface {
	List(ctx context.Context) ([]*Home, error)
	Get(ctx context.Context, homeID string) (*Home, error)
	Create(ctx context.Context, req CreateHomeRequest) (*Home, error)
	// Exists reports whether homeID is registered. Lookups may be cached.
	Exists(ctx context.Context, homeID string) (bool, error)
}

var (
	ErrInvalidHomeID = errors.New("invalid_home_id")
	ErrHomeNotFound  = errors.New("home_not_found")
	ErrHomeExists    = errors.New("home_exists")
)
