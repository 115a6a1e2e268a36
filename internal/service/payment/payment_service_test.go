package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ardiwinata/futsal-booking/internal/domain"
	"github.com/ardiwinata/futsal-booking/internal/repository/repositorytest"
	"github.com/ardiwinata/futsal-booking/internal/service/authz"
)

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

var (
	customer = domain.Actor{ID: 42, Role: domain.RolePenyewa}
	cashier  = domain.Actor{ID: 9, Role: domain.RoleStaffKasir}
	manager  = domain.Actor{ID: 15, Role: domain.RoleManajerFutsal}
)

func newTestService(store *repositorytest.MemStore, producer *MockProducer) *PaymentService {
	gate := authz.NewGate(domain.NewRoleHierarchy(domain.DefaultRoles()))
	var p Producer
	if producer != nil {
		p = producer
	}
	return NewPaymentService(repositorytest.NewMemUoW(store), gate, p, "payment_events")
}

func seedPendingPayment(store *repositorytest.MemStore, total int64) (*domain.Booking, *domain.Payment) {
	b := store.SeedBooking(domain.Booking{
		CustomerID:    customer.ID,
		Status:        domain.BookingStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
		TotalAmount:   total,
	})
	p := store.SeedPayment(domain.Payment{
		BookingID: b.ID,
		Method:    domain.PaymentMethodTransfer,
		Amount:    total,
		Status:    domain.PaymentStatusPending,
	})
	return b, p
}

func TestConfirmPayment_Success(t *testing.T) {
	store := repositorytest.NewMemStore()
	producer := &MockProducer{}
	service := newTestService(store, producer)
	ctx := context.Background()

	b, p := seedPendingPayment(store, 300000)

	producer.On("Publish", ctx, "payment_events", mock.Anything, mock.Anything).Return(nil).Once()

	confirmed, err := service.ConfirmPayment(ctx, cashier, p.ID, ConfirmPaymentInput{Amount: 300000, ReferenceNumber: "TRX-001"})

	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, confirmed.Status)
	assert.Equal(t, "TRX-001", confirmed.ReferenceNumber)
	assert.Equal(t, "staff_kasir:9", confirmed.ProcessedBy)

	// the booking flips to paid in the same transaction
	booking, _ := store.GetBooking(ctx, b.ID)
	assert.Equal(t, domain.PaymentStatusPaid, booking.PaymentStatus)

	logs, _ := store.PaymentLogs(ctx, p.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.PaymentActionConfirmed, logs[0].Action)
	assert.Equal(t, domain.PaymentStatusPending, logs[0].StatusFrom)
	assert.Equal(t, domain.PaymentStatusPaid, logs[0].StatusTo)
	assert.Equal(t, cashier.ID, logs[0].ProcessedByID)
	producer.AssertExpectations(t)
}

func TestConfirmPayment_AlreadyPaid(t *testing.T) {
	store := repositorytest.NewMemStore()
	service := newTestService(store, nil)
	ctx := context.Background()

	b := store.SeedBooking(domain.Booking{CustomerID: customer.ID, Status: domain.BookingStatusPending, PaymentStatus: domain.PaymentStatusPaid, TotalAmount: 300000})
	p := store.SeedPayment(domain.Payment{BookingID: b.ID, Amount: 300000, Status: domain.PaymentStatusPaid})

	_, err := service.ConfirmPayment(ctx, cashier, p.ID, ConfirmPaymentInput{Amount: 300000})

	assert.Equal(t, domain.KindAlreadyProcessed, domain.KindOf(err))

	// idempotence: the retry leaves no duplicate log record
	logs, _ := store.PaymentLogs(ctx, p.ID)
	assert.Empty(t, logs)
}

func TestConfirmPayment_SecondAttemptRejected(t *testing.T) {
	store := repositorytest.NewMemStore()
	producer := &MockProducer{}
	service := newTestService(store, producer)
	ctx := context.Background()

	// one booking, two pending attempts
	b, first := seedPendingPayment(store, 300000)
	second := store.SeedPayment(domain.Payment{
		BookingID: b.ID,
		Method:    domain.PaymentMethodCash,
		Amount:    300000,
		Status:    domain.PaymentStatusPending,
	})

	producer.On("Publish", ctx, "payment_events", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := service.ConfirmPayment(ctx, cashier, first.ID, ConfirmPaymentInput{Amount: 300000})
	require.NoError(t, err)

	_, err = service.ConfirmPayment(ctx, cashier, second.ID, ConfirmPaymentInput{Amount: 300000})
	assert.Equal(t, domain.KindAlreadyProcessed, domain.KindOf(err))

	// only one attempt may hold paid
	attempts, _ := store.PaymentsByBooking(ctx, b.ID)
	paidCount := 0
	for _, p := range attempts {
		if p.Status == domain.PaymentStatusPaid {
			paidCount++
		}
	}
	assert.Equal(t, 1, paidCount)

	// the rejected attempt left no log and did not touch the booking
	logs, _ := store.PaymentLogs(ctx, second.ID)
	assert.Empty(t, logs)
	booking, _ := store.GetBooking(ctx, b.ID)
	assert.Equal(t, domain.PaymentStatusPaid, booking.PaymentStatus)
	producer.AssertExpectations(t)
}

func TestConfirmPayment_SecondAttemptRejectedAfterShortfall(t *testing.T) {
	store := repositorytest.NewMemStore()
	producer := &MockProducer{}
	service := newTestService(store, producer)
	ctx := context.Background()

	b, first := seedPendingPayment(store, 300000)
	second := store.SeedPayment(domain.Payment{
		BookingID: b.ID,
		Method:    domain.PaymentMethodCash,
		Amount:    100000,
		Status:    domain.PaymentStatusPending,
	})

	producer.On("Publish", ctx, "payment_events", mock.Anything, mock.Anything).Return(nil).Once()

	// a shortfall confirmation marks the booking partial, not paid, but the
	// payment itself still holds paid
	_, err := service.ConfirmPayment(ctx, cashier, first.ID, ConfirmPaymentInput{Amount: 200000})
	require.NoError(t, err)
	booking, _ := store.GetBooking(ctx, b.ID)
	require.Equal(t, domain.PaymentStatusPartial, booking.PaymentStatus)

	_, err = service.ConfirmPayment(ctx, cashier, second.ID, ConfirmPaymentInput{Amount: 100000})
	assert.Equal(t, domain.KindAlreadyProcessed, domain.KindOf(err))

	current, _ := store.GetPayment(ctx, second.ID)
	assert.Equal(t, domain.PaymentStatusPending, current.Status)
	producer.AssertExpectations(t)
}

func TestConfirmPayment_CustomerForbidden(t *testing.T) {
	store := repositorytest.NewMemStore()
	service := newTestService(store, nil)

	_, p := seedPendingPayment(store, 300000)

	_, err := service.ConfirmPayment(context.Background(), customer, p.ID, ConfirmPaymentInput{Amount: 300000})

	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
	current, _ := store.GetPayment(context.Background(), p.ID)
	assert.Equal(t, domain.PaymentStatusPending, current.Status)
}

func TestConfirmPayment_InvalidAmount(t *testing.T) {
	store := repositorytest.NewMemStore()
	service := newTestService(store, nil)

	_, p := seedPendingPayment(store, 300000)

	_, err := service.ConfirmPayment(context.Background(), cashier, p.ID, ConfirmPaymentInput{Amount: 0})
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))

	_, err = service.ConfirmPayment(context.Background(), cashier, p.ID, ConfirmPaymentInput{Amount: -500})
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
}

func TestConfirmPayment_FailedPaymentRejected(t *testing.T) {
	store := repositorytest.NewMemStore()
	service := newTestService(store, nil)

	b := store.SeedBooking(domain.Booking{CustomerID: customer.ID, TotalAmount: 300000, Status: domain.BookingStatusPending, PaymentStatus: domain.PaymentStatusFailed})
	p := store.SeedPayment(domain.Payment{BookingID: b.ID, Amount: 300000, Status: domain.PaymentStatusFailed})

	_, err := service.ConfirmPayment(context.Background(), cashier, p.ID, ConfirmPaymentInput{Amount: 300000})

	assert.Equal(t, domain.KindInvalidTransition, domain.KindOf(err))
}

func TestConfirmPayment_ShortfallMarksBookingPartial(t *testing.T) {
	store := repositorytest.NewMemStore()
	producer := &MockProducer{}
	service := newTestService(store, producer)
	ctx := context.Background()

	b, p := seedPendingPayment(store, 300000)

	producer.On("Publish", ctx, "payment_events", mock.Anything, mock.Anything).Return(nil).Once()

	confirmed, err := service.ConfirmPayment(ctx, cashier, p.ID, ConfirmPaymentInput{Amount: 200000})

	// the mismatch is recorded, not blocking
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, confirmed.Status)
	assert.Equal(t, int64(200000), confirmed.Amount)

	booking, _ := store.GetBooking(ctx, b.ID)
	assert.Equal(t, domain.PaymentStatusPartial, booking.PaymentStatus)

	logs, _ := store.PaymentLogs(ctx, p.ID)
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Notes, "does not match booking total")
}

func TestConfirmPayment_OverpaymentStillPaid(t *testing.T) {
	store := repositorytest.NewMemStore()
	producer := &MockProducer{}
	service := newTestService(store, producer)
	ctx := context.Background()

	b, p := seedPendingPayment(store, 300000)

	producer.On("Publish", ctx, "payment_events", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := service.ConfirmPayment(ctx, cashier, p.ID, ConfirmPaymentInput{Amount: 350000})

	require.NoError(t, err)
	booking, _ := store.GetBooking(ctx, b.ID)
	assert.Equal(t, domain.PaymentStatusPaid, booking.PaymentStatus)

	logs, _ := store.PaymentLogs(ctx, p.ID)
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Notes, "does not match booking total")
}

func TestConfirmPayment_AuditFailureRollsBack(t *testing.T) {
	store := repositorytest.NewMemStore()
	service := newTestService(store, nil)
	ctx := context.Background()

	b, p := seedPendingPayment(store, 300000)
	store.AppendLogErr = errors.New("disk full")

	_, err := service.ConfirmPayment(ctx, cashier, p.ID, ConfirmPaymentInput{Amount: 300000})

	assert.Equal(t, domain.KindPersistenceFailure, domain.KindOf(err))

	// neither the payment nor the booking mutation survived
	payment, _ := store.GetPayment(ctx, p.ID)
	assert.Equal(t, domain.PaymentStatusPending, payment.Status)
	booking, _ := store.GetBooking(ctx, b.ID)
	assert.Equal(t, domain.PaymentStatusPending, booking.PaymentStatus)
}

func TestRecordPayment(t *testing.T) {
	store := repositorytest.NewMemStore()
	producer := &MockProducer{}
	service := newTestService(store, producer)
	ctx := context.Background()

	b := store.SeedBooking(domain.Booking{CustomerID: customer.ID, Status: domain.BookingStatusPending, PaymentStatus: domain.PaymentStatusPending, TotalAmount: 300000})

	producer.On("Publish", ctx, "payment_events", mock.Anything, mock.Anything).Return(nil).Once()

	p, err := service.RecordPayment(ctx, cashier, RecordPaymentInput{
		BookingID: b.ID, Method: "cash", Amount: 300000, ReferenceNumber: "CASH-7",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, p.Status)
	assert.Equal(t, domain.PaymentMethodCash, p.Method)

	logs, _ := store.PaymentLogs(ctx, p.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.PaymentActionRecorded, logs[0].Action)
	producer.AssertExpectations(t)
}

func TestRecordPayment_Validation(t *testing.T) {
	store := repositorytest.NewMemStore()
	service := newTestService(store, nil)
	ctx := context.Background()

	_, err := service.RecordPayment(ctx, cashier, RecordPaymentInput{BookingID: 1, Method: "cash", Amount: 0})
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))

	_, err = service.RecordPayment(ctx, cashier, RecordPaymentInput{BookingID: 1, Method: "crypto", Amount: 100})
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))

	_, err = service.RecordPayment(ctx, cashier, RecordPaymentInput{BookingID: 404, Method: "cash", Amount: 100})
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	_, err = service.RecordPayment(ctx, customer, RecordPaymentInput{BookingID: 1, Method: "cash", Amount: 100})
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
}

func TestFailPayment(t *testing.T) {
	store := repositorytest.NewMemStore()
	producer := &MockProducer{}
	service := newTestService(store, producer)
	ctx := context.Background()

	b, p := seedPendingPayment(store, 300000)

	producer.On("Publish", ctx, "payment_events", mock.Anything, mock.Anything).Return(nil).Once()

	failed, err := service.FailPayment(ctx, cashier, p.ID, "transfer bounced")

	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusFailed, failed.Status)

	booking, _ := store.GetBooking(ctx, b.ID)
	assert.Equal(t, domain.PaymentStatusFailed, booking.PaymentStatus)

	logs, _ := store.PaymentLogs(ctx, p.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.PaymentActionFailed, logs[0].Action)
	assert.Equal(t, "transfer bounced", logs[0].Notes)

	// failing again is idempotent-rejected
	_, err = service.FailPayment(ctx, cashier, p.ID, "again")
	assert.Equal(t, domain.KindAlreadyProcessed, domain.KindOf(err))
	logs, _ = store.PaymentLogs(ctx, p.ID)
	assert.Len(t, logs, 1)
}

func TestRefundPayment(t *testing.T) {
	store := repositorytest.NewMemStore()
	producer := &MockProducer{}
	service := newTestService(store, producer)
	ctx := context.Background()

	b := store.SeedBooking(domain.Booking{CustomerID: customer.ID, Status: domain.BookingStatusCancelled, PaymentStatus: domain.PaymentStatusPaid, TotalAmount: 300000})
	p := store.SeedPayment(domain.Payment{BookingID: b.ID, Amount: 300000, Status: domain.PaymentStatusPaid})

	// cashier is below the refund floor
	_, err := service.RefundPayment(ctx, cashier, p.ID, "booking cancelled")
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	producer.On("Publish", ctx, "payment_events", mock.Anything, mock.Anything).Return(nil).Once()

	refunded, err := service.RefundPayment(ctx, manager, p.ID, "booking cancelled")

	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusRefunded, refunded.Status)

	booking, _ := store.GetBooking(ctx, b.ID)
	assert.Equal(t, domain.PaymentStatusRefunded, booking.PaymentStatus)

	logs, _ := store.PaymentLogs(ctx, p.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.PaymentActionRefunded, logs[0].Action)

	// a pending payment has never been paid, so it cannot be refunded
	_, p2 := seedPendingPayment(store, 100000)
	_, err = service.RefundPayment(ctx, manager, p2.ID, "")
	assert.Equal(t, domain.KindInvalidTransition, domain.KindOf(err))
}

func TestGetPayment_Ownership(t *testing.T) {
	store := repositorytest.NewMemStore()
	service := newTestService(store, nil)
	ctx := context.Background()

	_, p := seedPendingPayment(store, 300000)

	got, err := service.GetPayment(ctx, customer, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = service.GetPayment(ctx, domain.Actor{ID: 777, Role: domain.RolePenyewa}, p.ID)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	_, err = service.GetPayment(ctx, cashier, p.ID)
	assert.NoError(t, err)

	_, err = service.GetPayment(ctx, cashier, 404)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}
