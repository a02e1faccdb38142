package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/gridpulse/internal/alert/domain"
	"github.com/smallbiznis/gridpulse/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupService(t *testing.T, defaultLimit int) domain.Service {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Alert{}))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return NewService(ServiceParam{
		DB:     conn,
		Log:    zap.NewNop(),
		GenID:  node,
		Config: config.Config{Query: config.QueryConfig{AlertsDefaultSize: defaultLimit}},
	})
}

func TestListMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	svc := setupService(t, 3)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		home := "H001"
		if i%2 == 1 {
			home = "H002"
		}
		require.NoError(t, svc.Record(ctx, &domain.Alert{
			HomeID:    home,
			Type:      domain.LevelHigh,
			Value:     1300 + float64(i),
			Message:   "High consumption detected",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	alerts, err := svc.List(ctx, domain.ListAlertsRequest{})
	require.NoError(t, err)
	require.Len(t, alerts, 3)
	assert.Equal(t, 1304.0, alerts[0].Value)
	assert.Equal(t, 1303.0, alerts[1].Value)
	assert.NotZero(t, alerts[0].ID)

	byHome, err := svc.List(ctx, domain.ListAlertsRequest{HomeID: "H002", Limit: 10})
	require.NoError(t, err)
	require.Len(t, byHome, 2)
	for _, a := range byHome {
		assert.Equal(t, "H002", a.HomeID)
	}
}

func TestListRejectsBadLimit(t *testing.T) {
	svc := setupService(t, 50)
	_, err := svc.List(context.Background(), domain.ListAlertsRequest{Limit: -1})
	assert.True(t, errors.Is(err, domain.ErrInvalidLimit))
	_, err = svc.List(context.Background(), domain.ListAlertsRequest{Limit: maxListLimit + 1})
	assert.True(t, errors.Is(err, domain.ErrInvalidLimit))
}

func TestListEmpty(t *testing.T) {
	alerts, err := setupService(t, 50).List(context.Background(), domain.ListAlertsRequest{})
	require.NoError(t, err)
	assert.NotNil(t, alerts)
	assert.Empty(t, alerts)
}
