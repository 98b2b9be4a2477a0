package database

import (
	"path/filepath"
	"testing"
	"time"

	"socialhub/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestDialector(t *testing.T) {
	d, err := Dialector(&config.Config{DBDriver: "postgres", DBHost: "db", DBPort: "5432"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	d, err = Dialector(&config.Config{DBDriver: "sqlite", DBSQLitePath: ":memory:"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	_, err = Dialector(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestAutoMigrate_CreatesLedgerConstraints(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:automigrate?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	for _, table := range []string{"users", "posts", "likes", "follows"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex("likes", "idx_likes_user_post"))
	assert.True(t, db.Migrator().HasIndex("follows", "idx_follows_pair"))

	require.NoError(t, db.Exec("INSERT INTO users (username, email, password_hash, full_name) VALUES ('a', 'a@x.io', 'h', 'A')").Error)
	err = db.Exec("INSERT INTO follows (follower_id, following_id) VALUES (1, 1)").Error
	assert.Error(t, err, "self follow must violate the check constraint")
}

func TestClose_NilDB(t *testing.T) {
	assert.NoError(t, Close(nil))
}

func TestConnect_StampsUTC(t *testing.T) {
	db, err := Connect(&config.Config{DBDriver: "sqlite", DBSQLitePath: filepath.Join(t.TempDir(), "utc.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	assert.Equal(t, time.UTC, db.NowFunc().Location())
}
