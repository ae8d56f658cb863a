// mailer/smtp.go
package mailer

import (
	"fmt"
	"net/smtp"
	"os"
)

// SMTPTransport sends directly through a transactional SMTP account.
type SMTPTransport struct {
	Host     string
	Port     string
	From     string
	Password string
}

func NewSMTPTransportFromEnv() *SMTPTransport {
	return &SMTPTransport{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     os.Getenv("SMTP_PORT"),
		From:     os.Getenv("SMTP_FROM"),
		Password: os.Getenv("SMTP_PASSWORD"),
	}
}

func (t *SMTPTransport) Send(msg Message) error {
	if t.Host == "" || t.From == "" {
		return fmt.Errorf("smtp transport not configured (SMTP_HOST/SMTP_FROM missing)")
	}
	port := t.Port
	if port == "" {
		port = "587"
	}

	body := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		t.From, msg.To, msg.Subject, msg.HTML,
	)

	auth := smtp.PlainAuth("", t.From, t.Password, t.Host)
	return smtp.SendMail(t.Host+":"+port, auth, t.From, []string{msg.To}, []byte(body))
}
