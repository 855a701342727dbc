package fulatoken

import "fula-deployer/internal/chain"

// Contract error codes returned by the token with panic_with_error
var (
	ErrAlreadyInitialized    = chain.ContractError(1)
	ErrNotOwner              = chain.ContractError(2)
	ErrInsufficientBalance   = chain.ContractError(3)
	ErrInsufficientAllowance = chain.ContractError(4)
	ErrNegativeAmount        = chain.ContractError(5)
	ErrNotInitialized        = chain.ContractError(6)
)

// Metadata set by initialize
const (
	TokenName     = "Fula Token"
	TokenSymbol   = "FULA"
	TokenDecimals = 18
)
