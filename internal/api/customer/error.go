package customer

import "AgriVoice/pkg/response"

var (
	ErrPhoneNumberAlreadyExists = response.NewError(409, "phone number already exists")
	ErrInvalidPhoneNumber       = response.NewError(400, "invalid phone number")
	ErrInvalidCredentials       = response.NewError(400, "invalid phone number or PIN")
	ErrCustomerNotFound         = response.NewError(404, "customer not found")
)
