// Package testutil provides an in-memory participations store for tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"participations-app/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var schema = []string{
	`CREATE TABLE participations (
		id INTEGER PRIMARY KEY,
		created_at DATETIME,
		user_id INTEGER,
		data TEXT
	)`,
	`CREATE TABLE open_list_values (
		id INTEGER PRIMARY KEY,
		title TEXT,
		list_id INTEGER
	)`,
	`CREATE TABLE observations (
		id INTEGER PRIMARY KEY,
		participation_id INTEGER,
		species TEXT
	)`,
	`CREATE TABLE observations_medias (
		id INTEGER PRIMARY KEY,
		observation_id INTEGER,
		media_id INTEGER
	)`,
	`CREATE TABLE medias (
		id INTEGER PRIMARY KEY,
		name TEXT,
		mime_type TEXT
	)`,
}

// CreatedAt is the creation time given to participations inserted by
// InsertParticipation.
var CreatedAt = time.Date(2023, 6, 1, 12, 30, 0, 0, time.UTC)

// OpenSQLite opens a private in-memory database carrying the participations
// schema. It is closed when the test ends.
func OpenSQLite(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	db, err := database.Open(database.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

// Close closes the underlying connection pool so later queries fail.
func Close(t testing.TB, db *gorm.DB) {
	t.Helper()
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

func InsertParticipation(t testing.TB, db *gorm.DB, id, userID uint, data string) {
	t.Helper()
	require.NoError(t, db.Exec(
		"INSERT INTO participations (id, created_at, user_id, data) VALUES (?, ?, ?, ?)",
		id, CreatedAt, userID, data,
	).Error)
}

func InsertLookupValue(t testing.TB, db *gorm.DB, id uint, title string) {
	t.Helper()
	require.NoError(t, db.Exec(
		"INSERT INTO open_list_values (id, title, list_id) VALUES (?, ?, ?)", id, title, 1,
	).Error)
}

func InsertObservation(t testing.TB, db *gorm.DB, id, participationID uint) {
	t.Helper()
	require.NoError(t, db.Exec(
		"INSERT INTO observations (id, participation_id, species) VALUES (?, ?, ?)", id, participationID, "unknown",
	).Error)
}

func InsertObservationMedia(t testing.TB, db *gorm.DB, id, observationID, mediaID uint) {
	t.Helper()
	require.NoError(t, db.Exec(
		"INSERT INTO observations_medias (id, observation_id, media_id) VALUES (?, ?, ?)", id, observationID, mediaID,
	).Error)
}

func InsertMedia(t testing.TB, db *gorm.DB, id uint, name string) {
	t.Helper()
	require.NoError(t, db.Exec(
		"INSERT INTO medias (id, name, mime_type) VALUES (?, ?, ?)", id, name, "image/jpeg",
	).Error)
}
