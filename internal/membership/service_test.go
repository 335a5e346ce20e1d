package membership

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gymtrack/internal/apperr"
	"gymtrack/internal/audit"
	"gymtrack/internal/logger"
	"gymtrack/internal/payment"
	"gymtrack/internal/plan"
)

func TestMain(m *testing.M) {
	logger.Init()

	code := m.Run()
	os.Exit(code)
}

// Mock repositories
type MockMembershipRepo struct{ mock.Mock }
type MockPlanRepo struct{ mock.Mock }
type MockPaymentRepo struct{ mock.Mock }

func (m *MockMembershipRepo) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqlx.Tx), args.Error(1)
}

func (m *MockMembershipRepo) LockMemberTx(ctx context.Context, tx *sqlx.Tx, memberID int) error {
	return m.Called(ctx, tx, memberID).Error(0)
}

func (m *MockMembershipRepo) ActiveExistsTx(ctx context.Context, tx *sqlx.Tx, memberID int, asOf time.Time) (bool, error) {
	args := m.Called(ctx, tx, memberID, asOf)
	return args.Bool(0), args.Error(1)
}

func (m *MockMembershipRepo) InsertTx(ctx context.Context, tx *sqlx.Tx, memberID, planID int, startDate, endDate time.Time, status Status) (*Membership, error) {
	args := m.Called(ctx, tx, memberID, planID, startDate, endDate, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Membership), args.Error(1)
}

func (m *MockMembershipRepo) GetByID(ctx context.Context, id int) (*Membership, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Membership), args.Error(1)
}

func (m *MockMembershipRepo) ListByMember(ctx context.Context, memberID int) ([]Membership, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Membership), args.Error(1)
}

func (m *MockMembershipRepo) CurrentForMember(ctx context.Context, memberID int, asOf time.Time) (*Membership, error) {
	args := m.Called(ctx, memberID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Membership), args.Error(1)
}

func (m *MockMembershipRepo) Cancel(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockMembershipRepo) ExpiringWithin(ctx context.Context, asOf time.Time, windowDays int) ([]MembershipWithDetails, error) {
	args := m.Called(ctx, asOf, windowDays)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]MembershipWithDetails), args.Error(1)
}

func (m *MockMembershipRepo) CountActiveOn(ctx context.Context, date time.Time) (int, error) {
	args := m.Called(ctx, date)
	return args.Int(0), args.Error(1)
}

func (m *MockMembershipRepo) RefreshStatuses(ctx context.Context, asOf time.Time) (int64, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPlanRepo) Create(ctx context.Context, name string, kind plan.Kind, durationDays int, priceCentavos int64, description *string) (*plan.Plan, error) {
	args := m.Called(ctx, name, kind, durationDays, priceCentavos, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*plan.Plan), args.Error(1)
}

func (m *MockPlanRepo) Update(ctx context.Context, id int, name string, durationDays int, priceCentavos int64, description *string, isActive bool) (*plan.Plan, error) {
	args := m.Called(ctx, id, name, durationDays, priceCentavos, description, isActive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*plan.Plan), args.Error(1)
}

func (m *MockPlanRepo) GetByID(ctx context.Context, id int) (*plan.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*plan.Plan), args.Error(1)
}

func (m *MockPlanRepo) GetActiveByID(ctx context.Context, id int, kind plan.Kind) (*plan.Plan, error) {
	args := m.Called(ctx, id, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*plan.Plan), args.Error(1)
}

func (m *MockPlanRepo) ListActive(ctx context.Context, kind plan.Kind) ([]plan.Plan, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]plan.Plan), args.Error(1)
}

func (m *MockPlanRepo) ListAll(ctx context.Context) ([]plan.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]plan.Plan), args.Error(1)
}

func (m *MockPlanRepo) Deactivate(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPaymentRepo) InsertMemberPaymentTx(ctx context.Context, tx *sqlx.Tx, membershipID, memberID int, amountCentavos int64, method payment.Method, referenceNo, notes *string, paymentDate time.Time) (*payment.Payment, error) {
	args := m.Called(ctx, tx, membershipID, memberID, amountCentavos, method, referenceNo, notes, paymentDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepo) InsertMemberPayment(ctx context.Context, membershipID, memberID int, amountCentavos int64, method payment.Method, referenceNo, notes *string, paymentDate time.Time) (*payment.Payment, error) {
	args := m.Called(ctx, membershipID, memberID, amountCentavos, method, referenceNo, notes, paymentDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepo) InsertWalkInPayment(ctx context.Context, planID int, customerName, mobileNo *string, amountCentavos int64, method payment.Method, referenceNo, notes *string, paymentDate time.Time) (*payment.WalkInPayment, error) {
	args := m.Called(ctx, planID, customerName, mobileNo, amountCentavos, method, referenceNo, notes, paymentDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.WalkInPayment), args.Error(1)
}

func (m *MockPaymentRepo) RevenueFor(ctx context.Context, from, to time.Time, stream payment.Stream) (int64, error) {
	args := m.Called(ctx, from, to, stream)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepo) CountMemberPaymentsOn(ctx context.Context, date time.Time) (int, error) {
	args := m.Called(ctx, date)
	return args.Int(0), args.Error(1)
}

func (m *MockPaymentRepo) CountWalkInsOn(ctx context.Context, date time.Time) (int, error) {
	args := m.Called(ctx, date)
	return args.Int(0), args.Error(1)
}

func (m *MockPaymentRepo) RecentMemberPayments(ctx context.Context, limit int) ([]payment.PaymentWithDetails, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.PaymentWithDetails), args.Error(1)
}

func (m *MockPaymentRepo) RecentWalkIns(ctx context.Context, limit int) ([]payment.WalkInWithPass, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.WalkInWithPass), args.Error(1)
}

func (m *MockPaymentRepo) ListByMember(ctx context.Context, memberID, limit int) ([]payment.PaymentWithDetails, error) {
	args := m.Called(ctx, memberID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.PaymentWithDetails), args.Error(1)
}

// testTx makes a real transaction handle backed by sqlmock so the
// service can commit or roll it back.
func testTx(t *testing.T) (*sqlx.Tx, sqlmock.Sqlmock, func()) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	dbMock.ExpectBegin()

	tx, err := sqlxDB.Beginx()
	require.NoError(t, err)

	return tx, dbMock, func() { sqlxDB.Close() }
}

func testSink(emits int) *audit.Service {
	client, rmock := redismock.NewClientMock()
	for i := 0; i < emits; i++ {
		rmock.Regexp().ExpectLPush("audit_events", `.*`).SetVal(1)
	}
	return audit.NewWithClient(client, nil)
}

func newTestService(repo Repository, planRepo plan.Repository, payRepo payment.Repository, sink *audit.Service, now time.Time) *service {
	s := NewService(repo, planRepo, payRepo, sink).(*service)
	s.now = func() time.Time { return now }
	return s
}

func monthlyPlan() *plan.Plan {
	return &plan.Plan{
		ID:            2,
		Name:          "Monthly",
		Kind:          plan.KindMembership,
		DurationDays:  30,
		PriceCentavos: 150000,
		IsActive:      true,
	}
}

func TestSubscribe(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	start := date(2024, 1, 1)
	end := date(2024, 1, 31)

	t.Run("successful subscribe commits membership and payment together", func(t *testing.T) {
		tx, dbMock, close := testTx(t)
		defer close()
		dbMock.ExpectCommit()

		repo := new(MockMembershipRepo)
		planRepo := new(MockPlanRepo)
		payRepo := new(MockPaymentRepo)

		planRepo.On("GetActiveByID", mock.Anything, 2, plan.KindMembership).Return(monthlyPlan(), nil)
		repo.On("BeginTx", mock.Anything).Return(tx, nil)
		repo.On("LockMemberTx", mock.Anything, tx, 7).Return(nil)
		repo.On("ActiveExistsTx", mock.Anything, tx, 7, start).Return(false, nil)
		repo.On("InsertTx", mock.Anything, tx, 7, 2, start, end, StatusActive).Return(&Membership{
			ID: 11, MemberID: 7, PlanID: 2, StartDate: start, EndDate: end, Status: StatusActive,
		}, nil)
		payRepo.On("InsertMemberPaymentTx", mock.Anything, tx, 11, 7, int64(150000), payment.MethodCash,
			(*string)(nil), (*string)(nil), now).Return(&payment.Payment{
			ID: 31, MembershipID: 11, MemberID: 7, AmountCentavos: 150000, Method: payment.MethodCash,
		}, nil)

		svc := newTestService(repo, planRepo, payRepo, testSink(2), now)

		m, pay, err := svc.Subscribe(context.Background(), 7, SubscribeRequest{
			PlanID: 2,
			Method: "cash",
		}, "10.0.0.1")

		assert.NoError(t, err)
		assert.Equal(t, 11, m.ID)
		assert.Equal(t, int64(150000), pay.AmountCentavos)
		assert.NoError(t, dbMock.ExpectationsWereMet())
		repo.AssertExpectations(t)
		payRepo.AssertExpectations(t)
	})

	t.Run("overlapping active membership is rejected", func(t *testing.T) {
		tx, dbMock, close := testTx(t)
		defer close()
		dbMock.ExpectRollback()

		repo := new(MockMembershipRepo)
		planRepo := new(MockPlanRepo)
		payRepo := new(MockPaymentRepo)

		planRepo.On("GetActiveByID", mock.Anything, 2, plan.KindMembership).Return(monthlyPlan(), nil)
		repo.On("BeginTx", mock.Anything).Return(tx, nil)
		repo.On("LockMemberTx", mock.Anything, tx, 7).Return(nil)
		repo.On("ActiveExistsTx", mock.Anything, tx, 7, start).Return(true, nil)

		svc := newTestService(repo, planRepo, payRepo, testSink(0), now)

		m, pay, err := svc.Subscribe(context.Background(), 7, SubscribeRequest{
			PlanID: 2,
			Method: "cash",
		}, "10.0.0.1")

		assert.Nil(t, m)
		assert.Nil(t, pay)
		assert.True(t, apperr.IsConflict(err))
		repo.AssertNotCalled(t, "InsertTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("payment insert failure rolls the membership back", func(t *testing.T) {
		tx, dbMock, close := testTx(t)
		defer close()
		dbMock.ExpectRollback()

		repo := new(MockMembershipRepo)
		planRepo := new(MockPlanRepo)
		payRepo := new(MockPaymentRepo)

		planRepo.On("GetActiveByID", mock.Anything, 2, plan.KindMembership).Return(monthlyPlan(), nil)
		repo.On("BeginTx", mock.Anything).Return(tx, nil)
		repo.On("LockMemberTx", mock.Anything, tx, 7).Return(nil)
		repo.On("ActiveExistsTx", mock.Anything, tx, 7, start).Return(false, nil)
		repo.On("InsertTx", mock.Anything, tx, 7, 2, start, end, StatusActive).Return(&Membership{
			ID: 11, MemberID: 7, PlanID: 2, StartDate: start, EndDate: end, Status: StatusActive,
		}, nil)
		payRepo.On("InsertMemberPaymentTx", mock.Anything, tx, 11, 7, int64(150000), payment.MethodCash,
			(*string)(nil), (*string)(nil), now).Return(nil, assert.AnError)

		svc := newTestService(repo, planRepo, payRepo, testSink(0), now)

		m, pay, err := svc.Subscribe(context.Background(), 7, SubscribeRequest{
			PlanID: 2,
			Method: "cash",
		}, "10.0.0.1")

		assert.Error(t, err)
		assert.Nil(t, m)
		assert.Nil(t, pay)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("unknown payment method", func(t *testing.T) {
		svc := newTestService(new(MockMembershipRepo), new(MockPlanRepo), new(MockPaymentRepo), testSink(0), now)

		_, _, err := svc.Subscribe(context.Background(), 7, SubscribeRequest{
			PlanID: 2,
			Method: "barter",
		}, "10.0.0.1")

		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("zero amount override is rejected", func(t *testing.T) {
		planRepo := new(MockPlanRepo)
		planRepo.On("GetActiveByID", mock.Anything, 2, plan.KindMembership).Return(monthlyPlan(), nil)

		svc := newTestService(new(MockMembershipRepo), planRepo, new(MockPaymentRepo), testSink(0), now)

		zero := int64(0)
		_, _, err := svc.Subscribe(context.Background(), 7, SubscribeRequest{
			PlanID:         2,
			Method:         "cash",
			AmountCentavos: &zero,
		}, "10.0.0.1")

		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("malformed start date", func(t *testing.T) {
		planRepo := new(MockPlanRepo)
		planRepo.On("GetActiveByID", mock.Anything, 2, plan.KindMembership).Return(monthlyPlan(), nil)

		svc := newTestService(new(MockMembershipRepo), planRepo, new(MockPaymentRepo), testSink(0), now)

		bad := "01/15/2024"
		_, _, err := svc.Subscribe(context.Background(), 7, SubscribeRequest{
			PlanID:    2,
			Method:    "cash",
			StartDate: &bad,
		}, "10.0.0.1")

		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("backdated window lands as expired", func(t *testing.T) {
		tx, dbMock, close := testTx(t)
		defer close()
		dbMock.ExpectCommit()

		backStart := date(2023, 10, 1)
		backEnd := date(2023, 10, 31)

		repo := new(MockMembershipRepo)
		planRepo := new(MockPlanRepo)
		payRepo := new(MockPaymentRepo)

		planRepo.On("GetActiveByID", mock.Anything, 2, plan.KindMembership).Return(monthlyPlan(), nil)
		repo.On("BeginTx", mock.Anything).Return(tx, nil)
		repo.On("LockMemberTx", mock.Anything, tx, 7).Return(nil)
		repo.On("ActiveExistsTx", mock.Anything, tx, 7, backStart).Return(false, nil)
		repo.On("InsertTx", mock.Anything, tx, 7, 2, backStart, backEnd, StatusExpired).Return(&Membership{
			ID: 12, MemberID: 7, PlanID: 2, StartDate: backStart, EndDate: backEnd, Status: StatusExpired,
		}, nil)
		payRepo.On("InsertMemberPaymentTx", mock.Anything, tx, 12, 7, int64(150000), payment.MethodCash,
			(*string)(nil), (*string)(nil), now).Return(&payment.Payment{ID: 32}, nil)

		svc := newTestService(repo, planRepo, payRepo, testSink(2), now)

		startStr := "2023-10-01"
		m, _, err := svc.Subscribe(context.Background(), 7, SubscribeRequest{
			PlanID:    2,
			Method:    "cash",
			StartDate: &startStr,
		}, "10.0.0.1")

		assert.NoError(t, err)
		assert.Equal(t, StatusExpired, m.Status)
	})
}

func TestCancelService(t *testing.T) {
	repo := new(MockMembershipRepo)
	repo.On("Cancel", mock.Anything, 11).Return(nil)

	svc := newTestService(repo, new(MockPlanRepo), new(MockPaymentRepo), testSink(1), time.Now())

	err := svc.Cancel(context.Background(), 1, 11, "10.0.0.1")
	assert.NoError(t, err)
	repo.AssertExpectations(t)

	repo.On("Cancel", mock.Anything, 99).Return(apperr.NotFound("membership 99 not found or already cancelled"))
	err = svc.Cancel(context.Background(), 1, 99, "10.0.0.1")
	assert.True(t, apperr.IsNotFound(err))
}

func TestExpiringWithinService(t *testing.T) {
	asOf := date(2024, 1, 15)

	repo := new(MockMembershipRepo)
	repo.On("ExpiringWithin", mock.Anything, asOf, 7).Return([]MembershipWithDetails{
		{Membership: Membership{ID: 3, EndDate: date(2024, 1, 16)}, MemberName: "Ana Cruz"},
	}, nil)

	svc := newTestService(repo, new(MockPlanRepo), new(MockPaymentRepo), testSink(0), time.Now())

	expiring, err := svc.ExpiringWithin(context.Background(), 7, asOf)
	assert.NoError(t, err)
	assert.Len(t, expiring, 1)

	_, err = svc.ExpiringWithin(context.Background(), -1, asOf)
	assert.True(t, apperr.IsValidation(err))
	repo.AssertNumberOfCalls(t, "ExpiringWithin", 1)
}

func TestCurrentService(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	repo := new(MockMembershipRepo)
	repo.On("CurrentForMember", mock.Anything, 7, now).Return(&Membership{
		ID: 11, MemberID: 7, StartDate: date(2024, 1, 1), EndDate: date(2024, 1, 31), Status: StatusActive,
	}, nil)

	svc := newTestService(repo, new(MockPlanRepo), new(MockPaymentRepo), testSink(0), now)

	m, err := svc.Current(context.Background(), 7)
	assert.NoError(t, err)
	assert.Equal(t, 11, m.ID)
}
