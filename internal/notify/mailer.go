package notify

import (
	"fmt"
	"strings"

	"crm-integrator/internal/order"

	"gopkg.in/gomail.v2"
)

// Mailer шлёт человекочитаемую сводку по каждой созданной сделке.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	to     string
}

func NewMailer(host string, port int, user, pass, from, to string) *Mailer {
	if host == "" || from == "" || to == "" {
		return nil
	}
	return &Mailer{
		dialer: gomail.NewDialer(host, port, user, pass),
		from:   from,
		to:     to,
	}
}

func (m *Mailer) DealCreated(n order.DealNotification) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Создана сделка #%d (%s)\n\n", n.DealID, n.Product)
	fmt.Fprintf(&b, "Госномер: %s\n", n.Plate)
	fmt.Fprintf(&b, "Заявитель: %s\n", n.CustomerName)
	fmt.Fprintf(&b, "E-mail: %s\n", n.Email)
	if n.Phone != "" {
		fmt.Fprintf(&b, "Телефон: %s\n", n.Phone)
	}
	if n.PageURL != "" {
		fmt.Fprintf(&b, "Страница: %s\n", n.PageURL)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.to)
	msg.SetHeader("Subject", fmt.Sprintf("Новая заявка: сделка #%d, %s", n.DealID, n.Plate))
	msg.SetBody("text/plain", b.String())

	return m.dialer.DialAndSend(msg)
}
