package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderAmount(t *testing.T) {
	surcharge, total := OrderAmount(180)
	assert.Equal(t, int64(3), surcharge)
	assert.Equal(t, int64(183), total)

	surcharge, total = OrderAmount(49)
	assert.Equal(t, int64(0), surcharge)
	assert.Equal(t, int64(49), total)

	surcharge, total = OrderAmount(1000)
	assert.Equal(t, int64(20), surcharge)
	assert.Equal(t, int64(1020), total)
}

func TestCancelByUser(t *testing.T) {
	cases := []struct {
		status  OrderStatus
		allowed bool
	}{
		{StatusOrderPlaced, true},
		{StatusPacking, true},
		{StatusShipped, false},
		{StatusOutForDelivery, false},
		{StatusDelivered, false},
		{StatusCancelled, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			o := &Order{Status: tc.status}
			err := o.CancelByUser()
			if tc.allowed {
				require.NoError(t, err)
				assert.Equal(t, StatusCancelled, o.Status)
				assert.Equal(t, CancelledByUser, o.CancelledBy)
				return
			}
			assert.ErrorIs(t, err, ErrNotCancellable)
			assert.Equal(t, tc.status, o.Status)
		})
	}
}

func TestSetStatusByAdmin_UserCancellationIsFinal(t *testing.T) {
	o := &Order{Status: StatusPacking}
	require.NoError(t, o.CancelByUser())

	for _, status := range OrderStatuses {
		err := o.SetStatusByAdmin(status)
		assert.ErrorIs(t, err, ErrCancelledByUser)
		assert.Equal(t, StatusCancelled, o.Status)
		assert.Equal(t, CancelledByUser, o.CancelledBy)
	}
}

func TestSetStatusByAdmin_AdminCancellationIsReversible(t *testing.T) {
	o := &Order{Status: StatusOrderPlaced, PaymentType: PaymentCOD}

	require.NoError(t, o.SetStatusByAdmin(StatusCancelled))
	assert.Equal(t, CancelledByAdmin, o.CancelledBy)

	require.NoError(t, o.SetStatusByAdmin(StatusCancelled))
	assert.Equal(t, CancelledByAdmin, o.CancelledBy)

	require.NoError(t, o.SetStatusByAdmin(StatusPacking))
	assert.Equal(t, StatusPacking, o.Status)
	assert.Empty(t, o.CancelledBy)
}

func TestSetStatusByAdmin_DeliveredMarksCashPaid(t *testing.T) {
	cod := &Order{Status: StatusOutForDelivery, PaymentType: PaymentCOD}
	require.NoError(t, cod.SetStatusByAdmin(StatusDelivered))
	assert.True(t, cod.IsPaid)

	card := &Order{Status: StatusOutForDelivery, PaymentType: PaymentCardHosted, IsPaid: true}
	require.NoError(t, card.SetStatusByAdmin(StatusDelivered))
	assert.True(t, card.IsPaid)

	unpaidCard := &Order{Status: StatusOutForDelivery, PaymentType: PaymentCardHosted}
	require.NoError(t, unpaidCard.SetStatusByAdmin(StatusDelivered))
	assert.False(t, unpaidCard.IsPaid)
}

func TestSetStatusByAdmin_UnknownStatus(t *testing.T) {
	o := &Order{Status: StatusPacking}
	assert.ErrorIs(t, o.SetStatusByAdmin("Lost"), ErrUnknownStatus)
	assert.Equal(t, StatusPacking, o.Status)
}

func TestCancelledByMatchesStatus(t *testing.T) {
	o := &Order{Status: StatusOrderPlaced, PaymentType: PaymentCOD}
	steps := []OrderStatus{StatusPacking, StatusCancelled, StatusShipped, StatusCancelled, StatusDelivered}
	for _, s := range steps {
		require.NoError(t, o.SetStatusByAdmin(s))
		assert.Equal(t, o.Status == StatusCancelled, o.CancelledBy != "")
	}
}

func TestVisible(t *testing.T) {
	assert.True(t, (&Order{PaymentType: PaymentCOD}).Visible())
	assert.False(t, (&Order{PaymentType: PaymentCardHosted}).Visible())
	assert.True(t, (&Order{PaymentType: PaymentCardHosted, IsPaid: true}).Visible())
}

func TestParseOrderStatus(t *testing.T) {
	s, ok := ParseOrderStatus("Out for Delivery")
	assert.True(t, ok)
	assert.Equal(t, StatusOutForDelivery, s)

	_, ok = ParseOrderStatus("out for delivery")
	assert.False(t, ok)
}
