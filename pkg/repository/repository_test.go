package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/gridpulse/pkg/db/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sample struct {
	ID        int64  `gorm:"primaryKey"`
	Group     string `gorm:"column:group_name"`
	CreatedAt time.Time
}

func setupStore(t *testing.T) Repository[sample] {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&sample{}))
	return ProvideStore[sample](conn)
}

func TestStoreFindWithOptions(t *testing.T) {
	ctx := context.Background()
	repo := setupStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.BatchCreate(ctx, []*sample{
		{ID: 1, Group: "a", CreatedAt: base},
		{ID: 2, Group: "a", CreatedAt: base.Add(time.Hour)},
		{ID: 3, Group: "b", CreatedAt: base.Add(2 * time.Hour)},
		{ID: 4, Group: "a", CreatedAt: base.Add(3 * time.Hour)},
	}))

	rows, err := repo.Find(ctx, &sample{Group: "a"},
		option.ApplyBetween("created_at", base.Add(30*time.Minute), base.Add(3*time.Hour)),
		option.ApplyOrder("created_at DESC"),
		option.ApplyLimit(1),
	)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(4), rows[0].ID)

	count, err := repo.Count(ctx, &sample{Group: "a"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestStoreFindOneMissingReturnsNil(t *testing.T) {
	repo := setupStore(t)
	got, err := repo.FindOne(context.Background(), &sample{Group: "missing"})
	require.NoError(t, err)
	assert.Nil(t, got)
}
