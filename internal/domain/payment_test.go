package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentTransitionTable(t *testing.T) {
	assert.True(t, PaymentStatusPending.CanTransitionTo(PaymentStatusPaid))
	assert.True(t, PaymentStatusPending.CanTransitionTo(PaymentStatusFailed))
	assert.True(t, PaymentStatusPaid.CanTransitionTo(PaymentStatusRefunded))

	assert.False(t, PaymentStatusPaid.CanTransitionTo(PaymentStatusPending))
	assert.False(t, PaymentStatusFailed.CanTransitionTo(PaymentStatusPaid))
	assert.False(t, PaymentStatusRefunded.CanTransitionTo(PaymentStatusPaid))
	assert.False(t, PaymentStatusPending.CanTransitionTo(PaymentStatusRefunded))
	assert.False(t, PaymentStatusPending.CanTransitionTo(PaymentStatusPending))
}

func TestPaymentMethodIsValid(t *testing.T) {
	assert.True(t, PaymentMethodCash.IsValid())
	assert.True(t, PaymentMethodTransfer.IsValid())
	assert.True(t, PaymentMethodQRIS.IsValid())
	assert.False(t, PaymentMethod("crypto").IsValid())
	assert.False(t, PaymentMethod("").IsValid())
}
