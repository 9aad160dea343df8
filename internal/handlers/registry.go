package handlers

// AppHandlers holds all HTTP handlers.
type AppHandlers struct {
	AuthHandler     *AuthHandler
	PaymentHandler  *PaymentHandler
	WorkshopHandler *WorkshopHandler
	PricingHandler  *PricingHandler
	AdminHandler    *AdminHandler
}
