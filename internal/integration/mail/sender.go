// Package mail sends installment reminder emails over SMTP. Sending is
// always an explicit user action; nothing here runs on a schedule.
package mail

import (
	"errors"
	"fmt"
	"net/smtp"
	"time"

	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/techfix/techfix-backend/internal/config"
)

// ErrNotConfigured is returned when SMTP settings are missing.
var ErrNotConfigured = errors.New("email sending is not configured")

// Sender delivers reminder emails via SMTP.
type Sender struct {
	cfg config.SMTPConfig
}

// NewSender creates a Sender from the SMTP configuration.
func NewSender(cfg config.SMTPConfig) *Sender {
	return &Sender{cfg: cfg}
}

// SendOverdueReminder notifies a customer about an overdue installment.
func (s *Sender) SendOverdueReminder(to, customerName, productName string, number int32, value decimal.Decimal, dueDate time.Time) error {
	if s.cfg.Host == "" || s.cfg.From == "" {
		return ErrNotConfigured
	}

	e := email.NewEmail()
	e.From = s.cfg.From
	e.To = []string{to}
	e.Subject = fmt.Sprintf("Parcela %d em atraso - %s", number, productName)
	e.Text = []byte(fmt.Sprintf(
		"Olá %s,\n\n"+
			"A parcela %d do seu crediário (%s), no valor de R$ %s, venceu em %s e encontra-se em aberto.\n"+
			"Por favor, procure a loja para regularizar o pagamento.\n\n"+
			"Obrigado.\n",
		customerName, number, productName, value.StringFixed(2), dueDate.Format("02/01/2006"),
	))

	addr := s.cfg.Host + ":" + s.cfg.Port
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	return e.Send(addr, auth)
}
