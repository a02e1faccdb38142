package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/gridpulse/internal/clock"
	"github.com/smallbiznis/gridpulse/internal/home/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupService(t *testing.T) domain.Service {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Home{}))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return NewService(ServiceParam{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)),
	})
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	svc := setupService(t)

	home, err := svc.Create(ctx, domain.CreateHomeRequest{HomeID: " H011 ", Address: "1 Grid Way", Owner: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "H011", home.HomeID)
	assert.NotZero(t, home.ID)

	got, err := svc.Get(ctx, "H011")
	require.NoError(t, err)
	assert.Equal(t, "1 Grid Way", got.Address)

	_, err = svc.Create(ctx, domain.CreateHomeRequest{HomeID: "H011"})
	assert.True(t, errors.Is(err, domain.ErrHomeExists))

	_, err = svc.Get(ctx, "H404")
	assert.True(t, errors.Is(err, domain.ErrHomeNotFound))
}

func TestCreateRejectsInvalidID(t *testing.T) {
	svc := setupService(t)
	for _, id := range []string{"", "  ", "a/b", "+"} {
		_, err := svc.Create(context.Background(), domain.CreateHomeRequest{HomeID: id})
		assert.True(t, errors.Is(err, domain.ErrInvalidHomeID), id)
	}
}

func TestExistsAndList(t *testing.T) {
	ctx := context.Background()
	svc := setupService(t)

	ok, err := svc.Exists(ctx, "H002")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Create(ctx, domain.CreateHomeRequest{HomeID: "H002"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateHomeRequest{HomeID: "H001"})
	require.NoError(t, err)

	ok, err = svc.Exists(ctx, "H002")
	require.NoError(t, err)
	assert.True(t, ok)

	homes, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, homes, 2)
	assert.Equal(t, "H001", homes[0].HomeID)
}
