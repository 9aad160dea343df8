package services_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/models"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/repositories"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/services"
)

func newAttemptService() services.AttemptService {
	return services.NewAttemptService(repositories.NewAttemptRepository())
}

func TestRecordAttempt_NumbersSequentially(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	svc := newAttemptService()

	first, err := svc.RecordAttempt(db, services.RecordAttemptInput{
		RegistrationID:  "ORG2026-001",
		Method:          models.PaymentMethodRazorpay,
		Amount:          7080,
		RazorpayOrderID: "order_a1",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, first.AttemptNumber)
	assert.Equal(t, "ORG2026-001:1", first.IdempotencyKey)
	assert.Equal(t, models.AttemptStatusInitiated, first.Status)
	assert.Equal(t, "INR", first.Currency)
	assert.Equal(t, models.RecordTypeRegistration, first.Purpose)

	second, err := svc.RecordAttempt(db, services.RecordAttemptInput{
		RegistrationID:  "ORG2026-001",
		Method:          models.PaymentMethodRazorpay,
		Amount:          7080,
		RazorpayOrderID: "order_a2",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, second.AttemptNumber)

	// Numbering is per registration, not global.
	other, err := svc.RecordAttempt(db, services.RecordAttemptInput{
		RegistrationID:  "ORG2026-002",
		Method:          models.PaymentMethodRazorpay,
		Amount:          7080,
		RazorpayOrderID: "order_b1",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, other.AttemptNumber)
}

func TestRecordAttempt_DuplicateIdempotencyKeyRejected(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)

	existing := &models.PaymentAttempt{
		RegistrationID: "ORG2026-010",
		AttemptNumber:  1,
		IdempotencyKey: models.AttemptIdempotencyKey("ORG2026-010", 1),
		Method:         models.PaymentMethodRazorpay,
		Purpose:        models.RecordTypeRegistration,
		Amount:         7080,
		Currency:       "INR",
		Status:         models.AttemptStatusInitiated,
	}
	require.NoError(t, db.Create(existing).Error)

	repo := repositories.NewAttemptRepository()
	clash := &models.PaymentAttempt{
		RegistrationID: "ORG2026-010",
		AttemptNumber:  1,
		IdempotencyKey: models.AttemptIdempotencyKey("ORG2026-010", 1),
		Method:         models.PaymentMethodRazorpay,
		Purpose:        models.RecordTypeRegistration,
		Amount:         7080,
		Currency:       "INR",
		Status:         models.AttemptStatusInitiated,
	}
	err := repo.Create(db, clash)
	assert.ErrorIs(t, err, repositories.ErrDuplicateAttempt)

	// The service retries past the clash by re-reading the max number.
	svc := newAttemptService()
	next, err := svc.RecordAttempt(db, services.RecordAttemptInput{
		RegistrationID:  "ORG2026-010",
		Method:          models.PaymentMethodRazorpay,
		Amount:          7080,
		RazorpayOrderID: "order_c1",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, next.AttemptNumber)
}

func TestAttemptStatus_ForwardOnly(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	svc := newAttemptService()

	attempt, err := svc.RecordAttempt(db, services.RecordAttemptInput{
		RegistrationID:  "ORG2026-020",
		Method:          models.PaymentMethodRazorpay,
		Amount:          7080,
		RazorpayOrderID: "order_fwd",
	})
	require.NoError(t, err)

	require.NoError(t, svc.MarkProcessing(db, attempt.ID))
	require.NoError(t, svc.MarkSuccess(db, attempt.ID, "pay_fwd", "sig_fwd"))

	reloaded, err := svc.FindByGatewayOrderID(db, "order_fwd")
	require.NoError(t, err)
	assert.Equal(t, models.AttemptStatusSuccess, reloaded.Status)
	assert.Equal(t, "pay_fwd", reloaded.RazorpayPaymentID)
	require.NotNil(t, reloaded.CompletedAt)

	// A successful attempt cannot be walked back.
	assert.ErrorIs(t, svc.MarkProcessing(db, attempt.ID), repositories.ErrAttemptTransition)
	assert.ErrorIs(t, svc.MarkFailed(db, attempt.ID), repositories.ErrAttemptTransition)
	assert.ErrorIs(t, svc.MarkCancelled(db, attempt.ID), repositories.ErrAttemptTransition)
}

func TestAttemptStatus_FailedIsTerminal(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	svc := newAttemptService()

	attempt, err := svc.RecordAttempt(db, services.RecordAttemptInput{
		RegistrationID:  "ORG2026-021",
		Method:          models.PaymentMethodRazorpay,
		Amount:          7080,
		RazorpayOrderID: "order_term",
	})
	require.NoError(t, err)

	require.NoError(t, svc.MarkFailed(db, attempt.ID))
	assert.ErrorIs(t, svc.MarkSuccess(db, attempt.ID, "pay_term", "sig"), repositories.ErrAttemptTransition)
}

func TestListForRegistration(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	svc := newAttemptService()

	for i := 0; i < 3; i++ {
		_, err := svc.RecordAttempt(db, services.RecordAttemptInput{
			RegistrationID:  "ORG2026-030",
			Method:          models.PaymentMethodRazorpay,
			Amount:          7080,
			RazorpayOrderID: fmt.Sprintf("order_list_%d", i),
		})
		require.NoError(t, err)
	}

	attempts, err := svc.ListForRegistration(db, "ORG2026-030")
	require.NoError(t, err)
	require.Len(t, attempts, 3)
	assert.Equal(t, 1, attempts[0].AttemptNumber)
	assert.Equal(t, 3, attempts[2].AttemptNumber)
}

func TestFindByIdempotencyKey(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	svc := newAttemptService()

	created, err := svc.RecordAttempt(db, services.RecordAttemptInput{
		RegistrationID:  "ORG2026-040",
		Method:          models.PaymentMethodRazorpay,
		Amount:          7080,
		RazorpayOrderID: "order_key",
	})
	require.NoError(t, err)

	found, err := svc.FindByIdempotencyKey(db, "ORG2026-040:1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = svc.FindByIdempotencyKey(db, "ORG2026-040:99")
	assert.ErrorIs(t, err, repositories.ErrAttemptNotFound)
}
