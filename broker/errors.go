package broker

import (
	"errors"
	"fmt"
)

// Common broker errors
var (
	ErrBrokerNotFound     = errors.New("broker not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSymbol      = errors.New("invalid symbol")
	ErrInvalidOrderType   = errors.New("invalid order type")
	ErrInvalidOrderSide   = errors.New("invalid order side")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrInvalidPrice       = errors.New("invalid price")
	ErrAPIError           = errors.New("API error")
	ErrNetworkError       = errors.New("network error")
)

// BrokerError represents a broker-specific error
type BrokerError struct {
	Broker  string `json:"broker"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *BrokerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Broker, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Broker, e.Code, e.Message)
}

func (e *BrokerError) Unwrap() error {
	return e.Err
}

// NewBrokerError creates a new broker error
func NewBrokerError(broker, code, message string, err error) *BrokerError {
	return &BrokerError{
		Broker:  broker,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ErrorCode returns the exchange error code carried by err, if any.
func ErrorCode(err error) string {
	var brokerErr *BrokerError
	if errors.As(err, &brokerErr) {
		return brokerErr.Code
	}
	return ""
}
