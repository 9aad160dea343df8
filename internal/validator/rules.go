package validator

import (
	"log"

	"github.com/go-playground/validator/v10"

	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/models"
)

// registerCustomRules installs the domain validation tags. Registration
// failure is a startup misconfiguration and aborts the process.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("is-payment-method", validatePaymentMethod)
	mustRegister("is-record-type", validateRecordType)
}

func validatePaymentMethod(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // empty is handled by 'required'
	}
	switch models.PaymentMethod(value) {
	case models.PaymentMethodRazorpay, models.PaymentMethodBankTransfer, models.PaymentMethodSponsor:
		return true
	}
	return false
}

func validateRecordType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.RecordType(value) {
	case models.RecordTypeRegistration, models.RecordTypeWorkshopAddon:
		return true
	}
	return false
}
