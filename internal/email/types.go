package email

import "github.com/AkashMedishetty/ISSH-2026-sub004/internal/models"

// SMTPConfig configures the SMTP provider.
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	UseTLS    bool
}

// ConfirmationData feeds the payment confirmation message sent to the
// registrant after a successful reconciliation.
type ConfirmationData struct {
	ToEmail        string
	Name           string
	RegistrationID string
	TransactionID  string
	Amount         models.PaymentAmount
	Breakdown      models.Breakdown
}

// AlertData feeds the high-priority support alert raised when money was
// captured but the registration could not be recorded.
type AlertData struct {
	ToEmail           string
	RazorpayPaymentID string
	RazorpayOrderID   string
	Amount            float64
	Currency          string
	RegistrantPayload string // the intended registration details, verbatim JSON
	FailureReason     string
}
