package models

type UserRole string
type RegistrationStatus string
type PaymentType string
type PaymentSubStatus string
type PaymentMethod string
type AttemptStatus string
type RecordStatus string
type RecordType string
type PendingPaymentStatus string
type DiscountType string

const (
	UserRoleDelegate UserRole = "delegate"
	UserRoleReviewer UserRole = "reviewer"
	UserRoleAdmin    UserRole = "admin"

	RegistrationStatusPendingPayment RegistrationStatus = "pending-payment"
	RegistrationStatusPending        RegistrationStatus = "pending"
	RegistrationStatusPaid           RegistrationStatus = "paid"
	RegistrationStatusConfirmed      RegistrationStatus = "confirmed"
	RegistrationStatusCancelled      RegistrationStatus = "cancelled"

	PaymentTypePending       PaymentType = "pending"
	PaymentTypeOnline        PaymentType = "online"
	PaymentTypeSponsored     PaymentType = "sponsored"
	PaymentTypeComplimentary PaymentType = "complimentary"
	PaymentTypeBankTransfer  PaymentType = "bank-transfer"

	PaymentSubStatusPending  PaymentSubStatus = "pending"
	PaymentSubStatusVerified PaymentSubStatus = "verified"
	PaymentSubStatusFailed   PaymentSubStatus = "failed"

	PaymentMethodRazorpay     PaymentMethod = "razorpay"
	PaymentMethodBankTransfer PaymentMethod = "bank-transfer"
	PaymentMethodSponsor      PaymentMethod = "sponsor"

	AttemptStatusInitiated  AttemptStatus = "initiated"
	AttemptStatusProcessing AttemptStatus = "processing"
	AttemptStatusSuccess    AttemptStatus = "success"
	AttemptStatusFailed     AttemptStatus = "failed"
	AttemptStatusCancelled  AttemptStatus = "cancelled"
	AttemptStatusRefunded   AttemptStatus = "refunded"

	RecordStatusCompleted RecordStatus = "completed"
	RecordStatusPending   RecordStatus = "pending"
	RecordStatusFailed    RecordStatus = "failed"

	RecordTypeRegistration  RecordType = "registration"
	RecordTypeWorkshopAddon RecordType = "workshop-addon"

	PendingPaymentUserCreationFailed PendingPaymentStatus = "payment_successful_user_creation_failed"
	PendingPaymentResolved           PendingPaymentStatus = "resolved"

	DiscountTypeTimeBased DiscountType = "time-based"
	DiscountTypeCode      DiscountType = "code-based"
)

// registrationStatusRank orders the forward-only registration lifecycle.
// Cancelled sits outside the ranking and is handled separately.
var registrationStatusRank = map[RegistrationStatus]int{
	RegistrationStatusPendingPayment: 0,
	RegistrationStatusPending:        1,
	RegistrationStatusPaid:           2,
	RegistrationStatusConfirmed:      3,
}

// CanTransitionTo reports whether a registration may move from s to next.
// Transitions only go forward; a paid or confirmed registration can no
// longer be cancelled through this path (refunds are an explicit admin
// action elsewhere).
func (s RegistrationStatus) CanTransitionTo(next RegistrationStatus) bool {
	if s == next {
		return true
	}
	if s == RegistrationStatusCancelled {
		return false
	}
	if next == RegistrationStatusCancelled {
		return registrationStatusRank[s] < registrationStatusRank[RegistrationStatusPaid]
	}
	return registrationStatusRank[next] > registrationStatusRank[s]
}

// terminalAttemptStatuses are statuses an attempt can never leave.
var terminalAttemptStatuses = map[AttemptStatus]bool{
	AttemptStatusSuccess:   true,
	AttemptStatusFailed:    true,
	AttemptStatusCancelled: true,
	AttemptStatusRefunded:  true,
}

// CanTransitionTo reports whether an attempt may move from s to next.
func (s AttemptStatus) CanTransitionTo(next AttemptStatus) bool {
	if terminalAttemptStatuses[s] {
		// Only refund may follow success.
		return s == AttemptStatusSuccess && next == AttemptStatusRefunded
	}
	if s == AttemptStatusInitiated {
		return next != AttemptStatusInitiated
	}
	// processing
	return terminalAttemptStatuses[next]
}
