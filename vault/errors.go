package vault

import (
	"errors"
	"fmt"
	"regexp"
)

// Local validation errors, raised before anything touches the chain.
var (
	ErrAlreadyHasVault     = errors.New("you already have a vault (factory is one-per-owner)")
	ErrInvalidHeir         = errors.New("heir must be a valid address other than your own")
	ErrInvalidPeriod       = errors.New("period must be 1-365 days")
	ErrInvalidAmount       = errors.New("enter a valid amount")
	ErrInsufficientBalance = errors.New("amount exceeds wallet balance")
	ErrInvalidRecipient    = errors.New("enter a valid recipient address")
	ErrNotClaimable        = errors.New("the countdown has not expired")
	ErrWithdrawClosed      = errors.New("withdraw is closed once the vault is claimable")
	ErrReleaseUnsupported  = errors.New("this factory does not support vault release")
	ErrVaultNotEmpty       = errors.New("vault must be empty before release")
	ErrNotAcknowledged     = errors.New("release requires explicit confirmation")
)

var (
	alreadyHasVaultRe = regexp.MustCompile(`(?i)ALREADY_HAS_VAULT`)
	outOfRangeRe      = regexp.MustCompile(`(?i)HeartbeatOutOfRange`)
	invalidAddressRe  = regexp.MustCompile(`(?i)InvalidAddress`)
	noGasRe           = regexp.MustCompile(`(?i)insufficient funds`)
)

// SimulationError is a dry-run failure with the contract's revert reason
// translated for display. The raw provider error stays wrapped.
type SimulationError struct {
	Friendly string
	cause    error
}

func (e *SimulationError) Error() string { return e.Friendly }
func (e *SimulationError) Unwrap() error { return e.cause }

// FriendlyRevert translates known revert reasons into the messages shown to
// the user. Unknown reasons pass through verbatim.
func FriendlyRevert(err error) *SimulationError {
	if err == nil {
		return nil
	}
	raw := err.Error()
	friendly := raw
	switch {
	case alreadyHasVaultRe.MatchString(raw):
		friendly = ErrAlreadyHasVault.Error()
	case outOfRangeRe.MatchString(raw):
		friendly = ErrInvalidPeriod.Error()
	case invalidAddressRe.MatchString(raw):
		friendly = "invalid heir address"
	case noGasRe.MatchString(raw):
		friendly = "insufficient gas for network fees"
	}
	return &SimulationError{Friendly: fmt.Sprintf("simulation: %s", friendly), cause: err}
}
