package membership

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"gymtrack/internal/apperr"
)

func setupMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() {
		sqlxDB.Close()
	}

	return repo, mock, closer
}

func membershipRows(m Membership) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "member_id", "plan_id", "start_date", "end_date", "status", "created_at", "updated_at"}).
		AddRow(m.ID, m.MemberID, m.PlanID, m.StartDate, m.EndDate, m.Status, m.CreatedAt, m.UpdatedAt)
}

func TestSubscribeTx(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	ctx := context.Background()
	start := date(2024, 1, 1)
	end := date(2024, 1, 31)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM users WHERE id = \$1 FOR UPDATE`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(7, start).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`INSERT INTO memberships`).
		WithArgs(7, 2, start, end, StatusActive).
		WillReturnRows(membershipRows(Membership{
			ID: 11, MemberID: 7, PlanID: 2,
			StartDate: start, EndDate: end, Status: StatusActive,
		}))
	mock.ExpectCommit()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.LockMemberTx(ctx, tx, 7))

	exists, err := repo.ActiveExistsTx(ctx, tx, 7, start)
	require.NoError(t, err)
	require.False(t, exists)

	m, err := repo.InsertTx(ctx, tx, 7, 2, start, end, StatusActive)
	require.NoError(t, err)
	require.Equal(t, 11, m.ID)
	require.Equal(t, StatusActive, m.Status)

	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLockMemberTxUnknownMember(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM users WHERE id = \$1 FOR UPDATE`).
		WithArgs(404).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	err = repo.LockMemberTx(ctx, tx, 404)
	require.Error(t, err)
	require.True(t, apperr.IsNotFound(err))

	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActiveExistsTxOverlap(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	ctx := context.Background()
	asOf := date(2024, 1, 15)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(7, asOf).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	exists, err := repo.ActiveExistsTx(ctx, tx, 7, asOf)
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectQuery(`SELECT (.+) FROM memberships\s+WHERE id = \$1`).
		WithArgs(11).
		WillReturnRows(membershipRows(Membership{
			ID: 11, MemberID: 7, PlanID: 2,
			StartDate: date(2024, 1, 1), EndDate: date(2024, 1, 31), Status: StatusActive,
		}))

	m, err := repo.GetByID(ctx, 11)
	require.NoError(t, err)
	require.Equal(t, 7, m.MemberID)

	mock.ExpectQuery(`SELECT (.+) FROM memberships\s+WHERE id = \$1`).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.GetByID(ctx, 99)
	require.True(t, apperr.IsNotFound(err))
}

func TestCancel(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectExec(`UPDATE memberships\s+SET status = 'cancelled'`).
		WithArgs(11).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Cancel(ctx, 11))

	// Second cancel hits the status guard and affects no rows.
	mock.ExpectExec(`UPDATE memberships\s+SET status = 'cancelled'`).
		WithArgs(11).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Cancel(ctx, 11)
	require.True(t, apperr.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrentForMember(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	ctx := context.Background()
	asOf := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT (.+) FROM memberships\s+WHERE member_id = \$1`).
		WithArgs(7, date(2024, 1, 15)).
		WillReturnRows(membershipRows(Membership{
			ID: 11, MemberID: 7, PlanID: 2,
			StartDate: date(2024, 1, 1), EndDate: date(2024, 1, 31), Status: StatusActive,
		}))

	m, err := repo.CurrentForMember(ctx, 7, asOf)
	require.NoError(t, err)
	require.Equal(t, 11, m.ID)
}

func TestCountActiveOn(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectQuery(`SELECT COUNT\(\*\)\s+FROM memberships`).
		WithArgs(date(2024, 1, 15)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.CountActiveOn(ctx, date(2024, 1, 15))
	require.NoError(t, err)
	require.Equal(t, 42, count)
}

func TestExpiringWithin(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	ctx := context.Background()
	from := date(2024, 1, 15)
	to := date(2024, 1, 22)

	rows := sqlmock.NewRows([]string{
		"id", "member_id", "plan_id", "start_date", "end_date", "status", "created_at", "updated_at",
		"member_name", "plan_name",
	}).
		AddRow(3, 5, 1, date(2024, 1, 1), date(2024, 1, 16), StatusActive, time.Now(), time.Now(), "Ana Cruz", "Monthly").
		AddRow(4, 6, 1, date(2024, 1, 1), date(2024, 1, 20), StatusActive, time.Now(), time.Now(), "Ben Reyes", "Monthly")

	mock.ExpectQuery(`FROM memberships m\s+JOIN users u`).
		WithArgs(from, to).
		WillReturnRows(rows)

	expiring, err := repo.ExpiringWithin(ctx, from, 7)
	require.NoError(t, err)
	require.Len(t, expiring, 2)
	require.Equal(t, "Ana Cruz", expiring[0].MemberName)
	require.True(t, expiring[0].EndDate.Before(expiring[1].EndDate))
}

func TestRefreshStatuses(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectExec(`UPDATE memberships\s+SET status = 'expired'`).
		WithArgs(date(2024, 2, 1)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	updated, err := repo.RefreshStatuses(ctx, date(2024, 2, 1))
	require.NoError(t, err)
	require.Equal(t, int64(3), updated)
}
