package email

import (
	"fmt"
	"io"

	qrcode "github.com/skip2/go-qrcode"
	gomail "gopkg.in/gomail.v2"
)

// SMTPProvider implements Provider over SMTP via gomail.
type SMTPProvider struct {
	config SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPProvider(config SMTPConfig) (*SMTPProvider, error) {
	if config.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if config.Port <= 0 || config.Port > 65535 {
		return nil, fmt.Errorf("invalid SMTP port: %d", config.Port)
	}

	dialer := gomail.NewDialer(config.Host, config.Port, config.Username, config.Password)
	return &SMTPProvider{config: config, dialer: dialer}, nil
}

func (p *SMTPProvider) SendPaymentConfirmation(data ConfirmationData) error {
	body, err := renderConfirmation(data)
	if err != nil {
		return fmt.Errorf("failed to render confirmation: %w", err)
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", p.config.FromEmail, p.config.FromName)
	m.SetHeader("To", data.ToEmail)
	m.SetHeader("Subject", fmt.Sprintf("Registration confirmed: %s", data.RegistrationID))
	m.SetBody("text/html", body)

	// Check-in QR encodes the registration id, scanned at the desk.
	qr, err := qrcode.Encode(data.RegistrationID, qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate qr code: %w", err)
	}
	m.Attach("checkin-qr.png", gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(qr)
		return err
	}))

	return p.dialer.DialAndSend(m)
}

func (p *SMTPProvider) SendSupportAlert(data AlertData) error {
	body, err := renderAlert(data)
	if err != nil {
		return fmt.Errorf("failed to render alert: %w", err)
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", p.config.FromEmail, p.config.FromName)
	m.SetHeader("To", data.ToEmail)
	m.SetHeader("Subject", fmt.Sprintf("URGENT: unrecorded captured payment %s", data.RazorpayPaymentID))
	m.SetHeader("X-Priority", "1")
	m.SetBody("text/html", body)

	return p.dialer.DialAndSend(m)
}

func (p *SMTPProvider) Close() error {
	return nil
}
