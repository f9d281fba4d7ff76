// Package errors provides structured domain errors with machine-readable codes.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeInvalidRequest represents a malformed request body.
	CodeInvalidRequest Code = "INVALID_REQUEST"

	// Wallet errors
	CodeWalletNotFound      Code = "WALLET_NOT_FOUND"
	CodeWalletUsernameEmpty Code = "WALLET_USERNAME_EMPTY"

	// Transfer errors
	CodeInvalidAmount     Code = "TRANSFER_INVALID_AMOUNT"
	CodeInsufficientFunds Code = "TRANSFER_INSUFFICIENT_FUNDS"

	// Storage errors
	CodeStorageFailure Code = "STORAGE_FAILURE"
)
