package plan

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

func planColumns() []string {
	return []string{"id", "name", "kind", "duration_days", "price_centavos", "description", "is_active", "created_at", "updated_at"}
}

func TestCreatePlan(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO plans`).
		WithArgs("Monthly", KindMembership, 30, int64(150000), nil).
		WillReturnRows(sqlmock.NewRows(planColumns()).
			AddRow(2, "Monthly", KindMembership, 30, int64(150000), nil, true, now, now))

	p, err := repo.Create(ctx, "Monthly", KindMembership, 30, 150000, nil)
	require.NoError(t, err)
	require.Equal(t, 2, p.ID)
	require.True(t, p.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetActiveByID(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery(`WHERE id = \$1 AND kind = \$2 AND is_active = TRUE`).
		WithArgs(2, KindMembership).
		WillReturnRows(sqlmock.NewRows(planColumns()).
			AddRow(2, "Monthly", KindMembership, 30, int64(150000), nil, true, now, now))

	p, err := repo.GetActiveByID(ctx, 2, KindMembership)
	require.NoError(t, err)
	require.Equal(t, "Monthly", p.Name)

	// A walk-in pass id cannot resolve as a membership plan.
	mock.ExpectQuery(`WHERE id = \$1 AND kind = \$2 AND is_active = TRUE`).
		WithArgs(4, KindMembership).
		WillReturnRows(sqlmock.NewRows(planColumns()))

	_, err = repo.GetActiveByID(ctx, 4, KindMembership)
	require.True(t, apperr.IsNotFound(err))
}

func TestListActiveOrderedByPrice(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	ctx := context.Background()
	now := time.Now()

	rows := sqlmock.NewRows(planColumns()).
		AddRow(1, "Weekly", KindMembership, 7, int64(50000), nil, true, now, now).
		AddRow(2, "Monthly", KindMembership, 30, int64(150000), nil, true, now, now)

	mock.ExpectQuery(`WHERE kind = \$1 AND is_active = TRUE\s+ORDER BY price_centavos ASC`).
		WithArgs(KindMembership).
		WillReturnRows(rows)

	plans, err := repo.ListActive(ctx, KindMembership)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	require.Less(t, plans[0].PriceCentavos, plans[1].PriceCentavos)
}

func TestDeactivate(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectExec(`UPDATE plans\s+SET is_active = FALSE`).
		WithArgs(2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Deactivate(ctx, 2))

	mock.ExpectExec(`UPDATE plans\s+SET is_active = FALSE`).
		WithArgs(99).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.True(t, apperr.IsNotFound(repo.Deactivate(ctx, 99)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePlan(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery(`UPDATE plans`).
		WithArgs(2, "Monthly Plus", 30, int64(180000), nil, true).
		WillReturnRows(sqlmock.NewRows(planColumns()).
			AddRow(2, "Monthly Plus", KindMembership, 30, int64(180000), nil, true, now, now))

	p, err := repo.Update(ctx, 2, "Monthly Plus", 30, 180000, nil, true)
	require.NoError(t, err)
	require.Equal(t, int64(180000), p.PriceCentavos)
}
