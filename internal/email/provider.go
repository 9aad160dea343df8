package email

// Provider sends the two messages this core produces. Both calls are
// synchronous; callers decide whether to fire-and-forget.
type Provider interface {
	// SendPaymentConfirmation mails the registrant their confirmed
	// registration with the amount breakdown and a check-in QR code.
	SendPaymentConfirmation(data ConfirmationData) error

	// SendSupportAlert mails support the manual-recovery instructions for
	// a captured payment whose registration could not be recorded.
	SendSupportAlert(data AlertData) error

	Close() error
}
