package payment

import "errors"

var (
	ErrInvalidInput     = errors.New("payment: missing required parameters")
	ErrInvalidSignature = errors.New("payment: invalid payment signature")
	ErrOrderNotFound    = errors.New("payment: order not found")
	ErrGateway          = errors.New("payment: gateway request failed")
	ErrMissingKey       = errors.New("payment: missing gateway credentials")
	ErrNilStore         = errors.New("payment: nil store")
	ErrNilGateway       = errors.New("payment: nil gateway")
	ErrOrderCompleted   = errors.New("payment: order already paid")
)
