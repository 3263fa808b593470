package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alfredoT7/io2-back/internal/datamodels/order"
	"github.com/alfredoT7/io2-back/internal/datamodels/user"
)

func TestFormatPhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"70123456", "59170123456"},      // 本地号补国家码
		{"701 234-56", "59170123456"},    // 先去分隔符
		{"+591 70123456", "59170123456"}, // 去掉加号
		{"59170123456", "59170123456"},   // 已经带国家码
		{"+14155550100", "14155550100"},  // 其他国际号只去加号
	}
	for _, c := range cases {
		require.Equal(t, c.want, FormatPhone(c.in), "input %q", c.in)
	}
}

func TestFormatOrderMessage_ContainsOrderDetails(t *testing.T) {
	o := &order.Order{
		OrderNumber: "ORD-20240305-001",
		Items: []order.Item{
			{Title: "Camisa", Quantity: 2, Subtotal: 20.00},
			{Title: "Taza", Quantity: 3, Subtotal: 7.50},
		},
		Total: 27.50,
		Shipping: order.Shipping{
			Address:    "Av. Arce 123",
			City:       "La Paz",
			PostalCode: "0000",
			Phone:      "70123456",
		},
		Notes:     "entregar por la tarde",
		Status:    order.StatusPending,
		OrderedAt: time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC),
	}
	buyer := &user.User{FullName: "Ana Morales", Phone: "70123456"}

	msg := FormatOrderMessage(o, buyer)

	require.Contains(t, msg, "ORD-20240305-001")
	require.Contains(t, msg, "Ana Morales")
	require.Contains(t, msg, "• *Camisa* x2 - Bs. 20.00")
	require.Contains(t, msg, "• *Taza* x3 - Bs. 7.50")
	require.Contains(t, msg, "TOTAL: Bs. 27.50")
	require.Contains(t, msg, "Av. Arce 123")
	require.Contains(t, msg, "entregar por la tarde")
	require.Contains(t, msg, "PENDING")
	require.Contains(t, msg, "05/03/2024 14:30")
}

func TestFormatOrderMessage_SkipsEmptyNotes(t *testing.T) {
	o := &order.Order{OrderNumber: "ORD-20240305-002", Status: order.StatusPending, OrderedAt: time.Now()}
	buyer := &user.User{FullName: "Ana"}

	msg := FormatOrderMessage(o, buyer)
	require.NotContains(t, msg, "Notas")
}
