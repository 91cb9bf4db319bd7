package db

import (
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"parking-reservation-backend/config"
	"parking-reservation-backend/internal/model"
)

func TestInit_SQLite(t *testing.T) {
	gormDB, err := Init(&config.DatabaseConfig{Driver: "sqlite", DSN: "file::memory:"})
	require.NoError(t, err)

	for _, table := range []any{&model.User{}, &model.ParkingSlot{}, &model.Booking{}, &model.Feedback{}, &model.PushSubscription{}} {
		assert.True(t, gormDB.Migrator().HasTable(table))
	}
}

func TestInit_UnsupportedDriver(t *testing.T) {
	_, err := Init(&config.DatabaseConfig{Driver: "oracle"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestApplyExclusionDDL(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	for _, ddl := range exclusionDDL {
		mock.ExpectExec(regexp.QuoteMeta(ddl)).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, applyExclusionDDL(gormDB))
	assert.NoError(t, mock.ExpectationsWereMet())

	ddl := strings.Join(exclusionDDL, "\n")
	assert.Contains(t, ddl, "EXCLUDE USING GIST")
	assert.NotContains(t, ddl, "CREATE INDEX", "the exclusion constraint's own index serves overlap lookups")
}

func TestApplyExclusionDDL_StopsOnError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta(exclusionDDL[0])).WillReturnError(assert.AnError)

	err = applyExclusionDDL(gormDB)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}
