package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
)

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

type Email struct {
	Smtp SmtpConfig
	To   []string
}

func NewEmail(smtpConfig SmtpConfig, to []string) *Email {
	return &Email{Smtp: smtpConfig, To: to}
}

func (e *Email) Notify(ctx context.Context, title, body string) error {
	if e.Smtp.Server == "" || len(e.To) == 0 {
		slog.InfoContext(ctx, "email is not configured, skipping report mail")
		return nil
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("renewbot <%s>", e.Smtp.EmailAddress)
	mail.To = e.To
	mail.Subject = title
	mail.Text = []byte(body)

	addr := fmt.Sprintf("%s:%d", e.Smtp.Server, e.Smtp.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", e.Smtp.EmailAddress, e.Smtp.Password, e.Smtp.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to send report mail", "err", err)
		return err
	}
	return nil
}
