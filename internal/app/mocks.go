package app

import "github.com/AkashMedishetty/ISSH-2026-sub004/internal/email"

// MockEmailProvider is used for tests and local development without SMTP.
type MockEmailProvider struct{}

func (m *MockEmailProvider) SendPaymentConfirmation(data email.ConfirmationData) error { return nil }
func (m *MockEmailProvider) SendSupportAlert(data email.AlertData) error               { return nil }
func (m *MockEmailProvider) Close() error                                              { return nil }
