package domain

import "errors"

var (
	ErrEventNotFound         = errors.New("event not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrInvalidCapacity       = errors.New("invalid capacity")
	ErrInvalidQuantity       = errors.New("invalid quantity")
	ErrInvalidDenomination   = errors.New("invalid denomination")
	ErrPayerRequired         = errors.New("payer required")
	ErrAddressRequired       = errors.New("address required")
	ErrCapacityDecrease      = errors.New("capacity decrease rejected")
	ErrSoldOut               = errors.New("sold out")
	ErrInsufficientPayment   = errors.New("insufficient payment")
	ErrPaymentTransferFailed = errors.New("payment transfer failed")
	ErrIssuanceFailed        = errors.New("credential issuance failed")
	ErrAmountOverflow        = errors.New("amount overflow")
)
