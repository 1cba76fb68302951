package main

import (
	"github.com/ethereum/go-ethereum/common"

	"wld-vault-tui/resolver"
	"wld-vault-tui/rpc"
	"wld-vault-tui/vault"
)

// -------------------- TEA MESSAGES --------------------
// All custom message types for The Elm Architecture

// rpcConnectedMsg contains result of RPC connection attempt
type rpcConnectedMsg struct {
	client *rpc.Client
	err    error
}

// bridgeProbeMsg reports whether the wallet companion daemon is reachable
type bridgeProbeMsg struct {
	available bool
}

// sessionRestoredMsg carries a previously persisted account, if any
type sessionRestoredMsg struct {
	account common.Address
	ok      bool
}

// walletConnectedMsg contains result of a wallet-auth attempt
type walletConnectedMsg struct {
	account common.Address
	err     error
}

// verifyResultMsg contains result of the personhood verification
type verifyResultMsg struct {
	err error
}

// vaultLoadedMsg contains the outcome of vault discovery for the account
type vaultLoadedMsg struct {
	discovery vault.Discovery
	err       error
}

// detailsMsg contains a fresh read of the vault configuration
type detailsMsg struct {
	details vault.Details
	err     error
}

// balancesMsg contains token metadata plus wallet and vault balances
type balancesMsg struct {
	balances vault.Balances
	err      error
}

// statusMsg contains the contract's countdown and claimability
type statusMsg struct {
	status vault.Status
	err    error
}

// creationMetaMsg contains the vault's creation block and timestamp
type creationMetaMsg struct {
	meta *rpc.CreationMeta
}

// releaseSupportMsg reports whether the factory supports releaseMyVault
type releaseSupportMsg struct {
	supported bool
}

// resolveResultMsg contains an identity resolution, tagged with the request
// sequence so stale responses can be dropped
type resolveResultMsg struct {
	seq   uint64
	input string
	res   *resolver.Resolution
}

// mutationDoneMsg contains the outcome of a submitted mutation
type mutationDoneMsg struct {
	op      string
	outcome vault.Outcome
	err     error
}

// balanceTickMsg triggers the scheduled balance refresh
type balanceTickMsg struct{}

// timerTickMsg triggers the scheduled countdown refresh
type timerTickMsg struct{}

// displayTickMsg advances the locally derived countdown once a second
type displayTickMsg struct{}

// clipboardCopiedMsg indicates clipboard copy completed
type clipboardCopiedMsg struct {
	label string
}

// clearToastMsg expires the transient status line
type clearToastMsg struct{}

// logInitMsg signals that log viewport should be initialized
type logInitMsg struct{}
