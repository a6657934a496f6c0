package repo

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Skotchmaster/stayfinder/internal/models"
)

func newMockRepo(t *testing.T) (*GormRepo, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return &GormRepo{DB: gdb}, mock
}

func TestChangeUserRole_ConcurrentChange(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET "role"=\$1 WHERE id = \$2 AND role = \$3`).
		WithArgs(models.RoleAdmin, 7, models.RoleRenter).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := r.ChangeUserRole(context.Background(), 7, models.RoleRenter, models.RoleAdmin, time.Now())
	assert.ErrorIs(t, err, ErrRoleChanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeSession_OnlyLiveRows(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE "user_sessions" SET "revoked"=\$1,"revoked_at"=\$2 WHERE token_hash = \$3 AND revoked = \$4`).
		WithArgs(true, now, "abc", false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.RevokeSession(context.Background(), "abc", now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerSum(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(-4200))

	sum, err := r.LedgerSum(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(-4200), sum)
	assert.NoError(t, mock.ExpectationsWereMet())
}
