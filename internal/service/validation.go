package service

import (
	"beauty-booking/internal/domain"
)

// Validation error codes returned to the form
const (
	CodeInvalidMethod       = "invalid_method"
	CodeLocationUnavailable = "location_unavailable"
	CodePhoneRequired       = "phone_required"
	CodePhoneInvalid        = "phone_invalid"
)

// PhoneDigits is the exact length of a mobile money phone number
const PhoneDigits = 10

// ValidationError is a recoverable input error. The form is shown again with Message.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

// PaymentInput is what the client chooses on the payment form
type PaymentInput struct {
	Method   domain.PaymentMethod `json:"method"`
	Location domain.Location      `json:"location"`
	Phone    string               `json:"phone,omitempty"`
}

// ValidatePayment checks the input against the provider. Checks run in a fixed
// order and the first failure is returned.
func ValidatePayment(provider *domain.Provider, input PaymentInput) error {
	if !input.Method.IsValid() {
		return &ValidationError{Code: CodeInvalidMethod, Message: "Please choose a valid payment method"}
	}

	if provider == nil || !provider.Offers(input.Location) {
		return &ValidationError{Code: CodeLocationUnavailable, Message: "This provider does not offer the selected location"}
	}

	if !input.Method.RequiresPhone() {
		return nil
	}

	if input.Phone == "" {
		return &ValidationError{Code: CodePhoneRequired, Message: "A phone number is required for this payment method"}
	}

	if !isPhoneNumber(input.Phone) {
		return &ValidationError{Code: CodePhoneInvalid, Message: "The phone number must contain exactly 10 digits"}
	}

	return nil
}

func isPhoneNumber(phone string) bool {
	if len(phone) != PhoneDigits {
		return false
	}
	for i := 0; i < len(phone); i++ {
		if phone[i] < '0' || phone[i] > '9' {
			return false
		}
	}
	return true
}
