package booking

import (
	"errors"
	"strings"

	"github.com/wolfman30/nail-studio-api/internal/validation"
)

var validate = validation.New()

// Normalize trims whitespace from every field.
func (c CustomerInfo) Normalize() CustomerInfo {
	return CustomerInfo{
		FirstName: strings.TrimSpace(c.FirstName),
		LastName:  strings.TrimSpace(c.LastName),
		Email:     strings.TrimSpace(c.Email),
		Phone:     strings.TrimSpace(c.Phone),
		Notes:     strings.TrimSpace(c.Notes),
	}
}

// ValidateCustomerInfo checks name lengths, email shape and phone shape.
// The returned info is normalized.
func ValidateCustomerInfo(info CustomerInfo) (CustomerInfo, error) {
	info = info.Normalize()
	if err := validate.Struct(info); err != nil {
		return info, &ValidationError{Fields: validation.Fields(err)}
	}
	return info, nil
}

// ValidateComplete checks that s holds everything needed to create a booking.
// Field keys name the state field that is missing or invalid.
func ValidateComplete(s State) error {
	fields := map[string]string{}
	if len(s.SelectedServices) == 0 {
		fields["selectedServices"] = "select at least one service"
	}
	for _, svc := range s.SelectedServices {
		if svc.Price < 0 || svc.Duration <= 0 {
			fields["selectedServices"] = "service lines need a non-negative price and a positive duration"
			break
		}
	}
	if s.SelectedDate == nil {
		fields["selectedDate"] = "is required"
	}
	if s.SelectedTime == nil {
		fields["selectedTime"] = "is required"
	}
	if s.CustomerInfo == nil {
		fields["customerInfo"] = "is required"
	} else if _, err := ValidateCustomerInfo(*s.CustomerInfo); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			for k, v := range verr.Fields {
				fields["customerInfo."+k] = v
			}
		}
	}
	if !s.AgreedToTerms {
		fields["agreedToTerms"] = "terms must be accepted"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
