package types

import "fmt"

// ValidationError is returned when an input is rejected before any network
// call is made (negative amount, malformed payload, missing field).
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InvalidAddressError is returned when an address fails format or EIP-55
// checksum validation.
type InvalidAddressError struct {
	Address string
}

func NewInvalidAddressError(address string) *InvalidAddressError {
	return &InvalidAddressError{Address: address}
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid address %q", e.Address)
}

// NotConnectedError is returned when an operation is invoked on a facade that
// has not been connected (or has been closed).
type NotConnectedError struct {
	Op string
}

func NewNotConnectedError(op string) *NotConnectedError {
	return &NotConnectedError{Op: op}
}

func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("%s: client is not connected", e.Op)
}

// ConnectionError is returned when no endpoint could be reached at
// construction time.
type ConnectionError struct {
	Chain string
	Cause error
}

func NewConnectionError(chain string, cause error) *ConnectionError {
	return &ConnectionError{Chain: chain, Cause: cause}
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to any rpc endpoint for chain %s: %v", e.Chain, e.Cause)
}

func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// RpcError wraps a transport or endpoint failure with the operation name so
// that callers can tell transient from permanent failures.
type RpcError struct {
	Op    string
	Cause error
}

func NewRpcError(op string, cause error) *RpcError {
	return &RpcError{Op: op, Cause: cause}
}

func (e *RpcError) Error() string {
	return fmt.Sprintf("rpc %s: %v", e.Op, e.Cause)
}

func (e *RpcError) Unwrap() error {
	return e.Cause
}

// InsufficientFundsError is returned when the sender balance cannot cover
// value + gas for a submission. Amounts are in Wei.
type InsufficientFundsError struct {
	Sender   string
	Balance  string
	Required string
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds for %s: balance = %s, required = %s",
		e.Sender, e.Balance, e.Required)
}

// InvalidNonceError is returned when the transaction nonce does not match the
// sender's pending nonce at submission time.
type InvalidNonceError struct {
	Sender   string
	TxNonce  uint64
	Expected uint64
}

func (e *InvalidNonceError) Error() string {
	return fmt.Sprintf("nonce mismatch for %s: tx nonce = %d, expected = %d",
		e.Sender, e.TxNonce, e.Expected)
}

// NotFoundError is returned when a block, transaction or receipt identifier
// does not resolve on the endpoint.
type NotFoundError struct {
	Kind string
	ID   string
}

func NewNotFoundError(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}
