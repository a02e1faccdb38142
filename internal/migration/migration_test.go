package migration

import (
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(embeddedMigrations, migrationsDir)
	require.NoError(t, err)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	require.Len(t, ups, 3)
	require.Equal(t, ups, downs)
}

func TestNewSourceReadsFirstVersion(t *testing.T) {
	src, err := newSource()
	require.NoError(t, err)
	defer src.Close()

	version, err := src.First()
	require.NoError(t, err)
	require.EqualValues(t, 1, version)
}

func TestMigrateSQLiteCreatesTables(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, Migrate(conn, "sqlite"))

	for _, table := range []string{"homes", "consumption_records", "alerts"} {
		require.True(t, conn.Migrator().HasTable(table), table)
	}
	require.True(t, conn.Migrator().HasIndex("consumption_records", "idx_consumption_home_ts"))
}

func TestMigrateRequiresHandle(t *testing.T) {
	require.Error(t, Migrate(nil, "sqlite"))
}

func TestRunRejectsBadInput(t *testing.T) {
	require.Error(t, Run("", DirectionUp))
	require.Error(t, Run("postgres://localhost/db", "sideways"))
}
