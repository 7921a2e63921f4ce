package domain

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	whatsAppSendURL    = "https://api.whatsapp.com/send"
	whatsAppCountryDDI = "55"
	minPhoneDigits     = 10
)

// Share — ссылка на страницу отслеживания и готовое сообщение для клиента.
type Share struct {
	Link    string
	Message string
	// WhatsAppURL пуст, если у клиента нет пригодного телефона.
	WhatsAppURL string
}

// TrackingLink формирует ссылку вида <origin>/tracking?code=<CODE>.
func TrackingLink(origin, code string) string {
	return fmt.Sprintf("%s/tracking?code=%s", strings.TrimRight(origin, "/"), url.QueryEscape(NormalizeTrackingCode(code)))
}

// ComposeShare собирает ссылку и текст уведомления. Отправка сообщения — забота внешнего мессенджера.
// При непригодном телефоне ссылка и текст всё равно заполнены, а ошибка равна ErrInvalidPhone.
func ComposeShare(origin, brand string, order Order) (Share, error) {
	code := NormalizeTrackingCode(order.Tracking.Code)
	if code == "" {
		return Share{}, ErrTrackingCodeRequired
	}

	link := TrackingLink(origin, code)
	message := fmt.Sprintf(
		"Olá, seu pedido já está sendo preparado e separado para entrega! A %s agradece a preferência. "+
			"Segue seu código de rastreio: %s. Clique aqui para acompanhar seu pedido: %s e saber mais detalhes.",
		brand, code, link,
	)

	share := Share{Link: link, Message: message}

	phone := digitsOnly(order.Customer.Phone)
	if len(phone) < minPhoneDigits {
		return share, ErrInvalidPhone
	}
	share.WhatsAppURL = fmt.Sprintf("%s?phone=%s%s&text=%s", whatsAppSendURL, whatsAppCountryDDI, phone, url.QueryEscape(message))

	return share, nil
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
