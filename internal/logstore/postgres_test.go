package logstore_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/DeafMist/intel-radar/backend/internal/logstore"
	"github.com/DeafMist/intel-radar/backend/internal/models"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		DriverName:           "postgres",
		Conn:                 db,
		PreferSimpleProtocol: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func TestPostgresInsert(t *testing.T) {
	db, mock := newMockDB(t)
	store := logstore.NewPostgres(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "interactions"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.Insert(context.Background(), models.Interaction{
		ID:            "rec-1",
		RunID:         "run-1",
		Kind:          models.KindQuery,
		OriginalQuery: "EV news",
		Mode:          models.ModeNews,
		Timestamp:     time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInsertError(t *testing.T) {
	db, mock := newMockDB(t)
	store := logstore.NewPostgres(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "interactions"`).
		WillReturnError(errors.New("db down"))
	mock.ExpectRollback()

	err := store.Insert(context.Background(), models.Interaction{ID: "rec-2", RunID: "run-2", Kind: models.KindResponse})
	require.ErrorContains(t, err, "insert interaction")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteOlderThan(t *testing.T) {
	db, mock := newMockDB(t)
	store := logstore.NewPostgres(db)

	query := regexp.QuoteMeta(`DELETE FROM "interactions" WHERE id IN`)
	mock.ExpectExec(query).WithArgs(sqlmock.AnyArg(), 2).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(query).WithArgs(sqlmock.AnyArg(), 2).WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := store.DeleteOlderThan(context.Background(), time.Hour, 2)
	require.NoError(t, err)
	require.EqualValues(t, 3, deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}
