package seed

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	homedomain "github.com/smallbiznis/gridpulse/internal/home/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&homedomain.Home{}))
	return db
}

func TestEnsureHomesSeedsEmptyRegistry(t *testing.T) {
	db := setupDB(t)

	created, err := EnsureHomes(db)
	require.NoError(t, err)
	require.Equal(t, 10, created)

	var homes []homedomain.Home
	require.NoError(t, db.Order("home_id ASC").Find(&homes).Error)
	require.Len(t, homes, 10)
	require.Equal(t, "H001", homes[0].HomeID)
	require.Equal(t, "123 Main Street", homes[0].Address)
	require.Equal(t, "John Smith", homes[0].Owner)
	require.Equal(t, "H010", homes[9].HomeID)
	require.NotZero(t, homes[0].ID)
}

func TestEnsureHomesIsIdempotent(t *testing.T) {
	db := setupDB(t)

	_, err := EnsureHomes(db)
	require.NoError(t, err)
	created, err := EnsureHomes(db)
	require.NoError(t, err)
	require.Zero(t, created)

	var count int64
	require.NoError(t, db.Model(&homedomain.Home{}).Count(&count).Error)
	require.EqualValues(t, 10, count)
}

func TestEnsureHomesSkipsNonEmptyRegistry(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Create(&homedomain.Home{ID: 1, HomeID: "X001"}).Error)

	created, err := EnsureHomes(db)
	require.NoError(t, err)
	require.Zero(t, created)

	var count int64
	require.NoError(t, db.Model(&homedomain.Home{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestEnsureHomesRequiresHandle(t *testing.T) {
	_, err := EnsureHomes(nil)
	require.Error(t, err)
}

func TestSampleHomesReturnsCopy(t *testing.T) {
	homes := SampleHomes()
	homes[0].HomeID = "changed"
	require.Equal(t, "H001", SampleHomes()[0].HomeID)
}
