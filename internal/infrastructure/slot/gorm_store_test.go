package slot

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockGormStore(t *testing.T) (*GormStore, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormStore(gormDB), mock, mockDB
}

func TestGormStore_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("returns stored value", func(t *testing.T) {
		store, mock, mockDB := newMockGormStore(t)
		defer mockDB.Close()

		now := time.Now()
		rows := sqlmock.NewRows([]string{"key", "value", "expires_at", "created_at", "updated_at"}).
			AddRow("profile-1:visitor_id_backup", "v_abc123", nil, now, now)

		mock.ExpectQuery(`SELECT \* FROM "kv_slots" WHERE key = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("profile-1:visitor_id_backup", 1).
			WillReturnRows(rows)

		value, err := store.Get(ctx, "profile-1:visitor_id_backup")
		require.NoError(t, err)
		assert.Equal(t, "v_abc123", value)
	})

	t.Run("absent key reads as empty", func(t *testing.T) {
		store, mock, mockDB := newMockGormStore(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "kv_slots"`).
			WithArgs("missing", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		value, err := store.Get(ctx, "missing")
		require.NoError(t, err)
		assert.Empty(t, value)
	})

	t.Run("expired row reads as empty and is reaped", func(t *testing.T) {
		store, mock, mockDB := newMockGormStore(t)
		defer mockDB.Close()

		expired := time.Now().Add(-time.Hour)
		rows := sqlmock.NewRows([]string{"key", "value", "expires_at", "created_at", "updated_at"}).
			AddRow("profile-1:visitor_id_backup", "v_abc123", expired, expired, expired)

		mock.ExpectQuery(`SELECT \* FROM "kv_slots"`).
			WithArgs("profile-1:visitor_id_backup", 1).
			WillReturnRows(rows)
		mock.ExpectExec(`DELETE FROM "kv_slots" WHERE key = \$1 AND expires_at <= \$2`).
			WithArgs("profile-1:visitor_id_backup", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		value, err := store.Get(ctx, "profile-1:visitor_id_backup")
		require.NoError(t, err)
		assert.Empty(t, value)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed reap does not surface from Get", func(t *testing.T) {
		store, mock, mockDB := newMockGormStore(t)
		defer mockDB.Close()

		expired := time.Now().Add(-time.Hour)
		rows := sqlmock.NewRows([]string{"key", "value", "expires_at", "created_at", "updated_at"}).
			AddRow("profile-1:visitor_id_backup", "v_abc123", expired, expired, expired)

		mock.ExpectQuery(`SELECT \* FROM "kv_slots"`).
			WithArgs("profile-1:visitor_id_backup", 1).
			WillReturnRows(rows)
		mock.ExpectExec(`DELETE FROM "kv_slots"`).
			WillReturnError(sql.ErrConnDone)

		value, err := store.Get(ctx, "profile-1:visitor_id_backup")
		require.NoError(t, err)
		assert.Empty(t, value)
	})
}

func TestGormStore_Set(t *testing.T) {
	ctx := context.Background()

	t.Run("upserts the value", func(t *testing.T) {
		store, mock, mockDB := newMockGormStore(t)
		defer mockDB.Close()

		mock.ExpectExec(`INSERT INTO "kv_slots" .* ON CONFLICT \("key"\) DO UPDATE SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.Set(ctx, "profile-1:visitor_id_backup", "v_abc123", 400*24*time.Hour)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStore_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes the key", func(t *testing.T) {
		store, mock, mockDB := newMockGormStore(t)
		defer mockDB.Close()

		mock.ExpectExec(`DELETE FROM "kv_slots" WHERE key = \$1`).
			WithArgs("profile-1:visitor_id_backup").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.Delete(ctx, "profile-1:visitor_id_backup")
		require.NoError(t, err)
	})
}
