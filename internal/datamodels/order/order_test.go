package order

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidShippingPhone(t *testing.T) {
	valid := []string{"70123456", "+591 70123456", "+59170123456", "+1 4155550100"}
	for _, p := range valid {
		require.True(t, ValidShippingPhone(p), "expected %q to be valid", p)
	}

	invalid := []string{"", "1234567", "50123456", "abc", "+"}
	for _, p := range invalid {
		require.False(t, ValidShippingPhone(p), "expected %q to be invalid", p)
	}
}

func TestValidStatusAndPaymentMethod(t *testing.T) {
	for _, s := range Statuses {
		require.True(t, ValidStatus(s))
	}
	require.False(t, ValidStatus("returned"))

	require.True(t, ValidPaymentMethod(PayCash))
	require.False(t, ValidPaymentMethod("bitcoin"))

	require.True(t, IsCardMethod(PayCreditCard))
	require.True(t, IsCardMethod(PayDebitCard))
	require.False(t, IsCardMethod(PayCash))
}

func TestTotalQuantity(t *testing.T) {
	o := &Order{Items: []Item{{Quantity: 2}, {Quantity: 3}}}
	require.EqualValues(t, 5, o.TotalQuantity())
}
