package notify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alfredoT7/io2-back/internal/datamodels/order"
	"github.com/alfredoT7/io2-back/internal/datamodels/user"
)

var phoneSeparators = regexp.MustCompile(`[\s\-()]`)
var localMobile = regexp.MustCompile(`^[6-8]\d{7}$`)

// FormatPhone 规范化投递号码：去掉分隔符；本地 8 位手机号补 591 国家码；
// 带 +591 的去掉加号，统一成裸的 国家码+本地号 数字串。
func FormatPhone(phone string) string {
	clean := phoneSeparators.ReplaceAllString(phone, "")

	if localMobile.MatchString(clean) {
		return "591" + clean
	}
	if strings.HasPrefix(clean, "+591") {
		return clean[1:]
	}
	clean = strings.TrimPrefix(clean, "+")
	if !strings.HasPrefix(clean, "591") && len(clean) == 8 {
		return "591" + clean
	}
	return clean
}

// FormatOrderMessage 生成面向买家的确认消息文本（西语，订单号/明细/合计/收货信息/状态/日期）
func FormatOrderMessage(o *order.Order, buyer *user.User) string {
	var lines []string
	for _, it := range o.Items {
		lines = append(lines, fmt.Sprintf("• *%s* x%d - Bs. %.2f", it.Title, it.Quantity, it.Subtotal))
	}

	var b strings.Builder
	b.WriteString("🛒 *COMPRA CONFIRMADA*\n\n")
	fmt.Fprintf(&b, "📋 *Orden:* %s\n", o.OrderNumber)
	fmt.Fprintf(&b, "👤 *Cliente:* %s\n", buyer.FullName)
	fmt.Fprintf(&b, "📞 *Teléfono:* %s\n\n", buyer.Phone)
	b.WriteString("🛍️ *PRODUCTOS:*\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "💰 *TOTAL: Bs. %.2f*\n\n", o.Total)
	b.WriteString("📍 *DATOS DE ENVÍO:*\n")
	fmt.Fprintf(&b, "📍 %s\n", o.Shipping.Address)
	fmt.Fprintf(&b, "🏙️ %s\n", o.Shipping.City)
	fmt.Fprintf(&b, "📮 CP: %s\n", o.Shipping.PostalCode)
	fmt.Fprintf(&b, "📱 Tel: %s\n\n", o.Shipping.Phone)
	if o.Notes != "" {
		fmt.Fprintf(&b, "📝 *Notas:* %s\n\n", o.Notes)
	}
	fmt.Fprintf(&b, "✅ *Estado:* %s\n", strings.ToUpper(o.Status))
	fmt.Fprintf(&b, "📅 *Fecha:* %s\n\n", o.OrderedAt.Format("02/01/2006 15:04"))
	b.WriteString("¡Gracias por tu compra! 🙏\n")
	b.WriteString("Tu pedido será procesado pronto.\n\n")
	b.WriteString("_Este es un mensaje automático de confirmación._")
	return b.String()
}
