package main

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"wld-vault-tui/bridge"
	"wld-vault-tui/helpers"
	"wld-vault-tui/resolver"
	"wld-vault-tui/rpc"
	"wld-vault-tui/session"
	"wld-vault-tui/vault"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
)

// -------------------- COMMAND FUNCTIONS --------------------
// Functions that return tea.Cmd for async operations

const readTimeout = 15 * time.Second

// connectRPC establishes an RPC connection to the chain provider
func connectRPC(url string, factory, token common.Address) tea.Cmd {
	return func() tea.Msg {
		result := rpc.Connect(url)
		if result.Client != nil {
			result.Client.Factory = factory
			result.Client.Token = token
		}
		return rpcConnectedMsg{client: result.Client, err: result.Error}
	}
}

// probeBridge checks whether the wallet companion daemon is reachable
func probeBridge(br bridge.Bridge) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return bridgeProbeMsg{available: br.Available(ctx)}
	}
}

// restoreSession loads a previously persisted account from the config file
func restoreSession(mgr *session.Manager) tea.Cmd {
	return func() tea.Msg {
		account, ok := mgr.Restore()
		return sessionRestoredMsg{account: account, ok: ok}
	}
}

// connectWallet runs wallet-auth through the bridge
func connectWallet(mgr *session.Manager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		account, err := mgr.Connect(ctx)
		return walletConnectedMsg{account: account, err: err}
	}
}

// verifySession runs the personhood check when the config requires it
func verifySession(mgr *session.Manager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		return verifyResultMsg{err: mgr.Verify(ctx)}
	}
}

// loadVault discovers the account's vault via the factory mapping and the
// heir-side event scan
func loadVault(s *vault.Synchronizer, account common.Address) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		d, err := s.LoadVault(ctx, account)
		return vaultLoadedMsg{discovery: d, err: err}
	}
}

// refreshDetails re-reads the vault configuration
func refreshDetails(s *vault.Synchronizer, vaultAddr common.Address) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
		defer cancel()
		d, err := s.RefreshDetails(ctx, vaultAddr)
		return detailsMsg{details: d, err: err}
	}
}

// refreshBalances re-reads token metadata and balances
func refreshBalances(s *vault.Synchronizer, account, vaultAddr common.Address) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
		defer cancel()
		b, err := s.RefreshBalances(ctx, account, vaultAddr)
		return balancesMsg{balances: b, err: err}
	}
}

// refreshTimer re-reads the contract's countdown and claimability
func refreshTimer(s *vault.Synchronizer, vaultAddr common.Address) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
		defer cancel()
		st, err := s.RefreshTimer(ctx, vaultAddr)
		return statusMsg{status: st, err: err}
	}
}

// loadCreationMeta locates the vault's creation block for display
func loadCreationMeta(s *vault.Synchronizer, vaultAddr, owner, heir, account common.Address) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		meta, _ := s.CreationMeta(ctx, vaultAddr, owner, heir, account)
		return creationMetaMsg{meta: meta}
	}
}

// probeReleaseSupport checks whether the factory exposes releaseMyVault
func probeReleaseSupport(s *vault.Synchronizer, account common.Address) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
		defer cancel()
		return releaseSupportMsg{supported: s.SupportsRelease(ctx, account)}
	}
}

// scheduleBalanceRefresh re-arms the periodic balance refresh
func scheduleBalanceRefresh() tea.Cmd {
	return tea.Tick(balanceRefreshEvery, func(time.Time) tea.Msg {
		return balanceTickMsg{}
	})
}

// scheduleTimerRefresh re-arms the periodic countdown refresh
func scheduleTimerRefresh() tea.Cmd {
	return tea.Tick(timerRefreshEvery, func(time.Time) tea.Msg {
		return timerTickMsg{}
	})
}

// scheduleDisplayTick re-arms the once-a-second countdown repaint
func scheduleDisplayTick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return displayTickMsg{}
	})
}

// resolveIdentity resolves a heir input, tagged with seq so only the
// newest in-flight request is applied
func resolveIdentity(r *resolver.Resolver, seq uint64, input string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		res, _ := r.Resolve(ctx, input)
		return resolveResultMsg{seq: seq, input: input, res: res}
	}
}

// Mutation commands. Each runs the full validate/simulate/submit/reconcile
// pipeline and reports a single mutationDoneMsg.

func doCreate(c *vault.Controller, heir common.Address, days int) tea.Cmd {
	return mutate("create", func(ctx context.Context) (vault.Outcome, error) {
		return c.Create(ctx, heir, days)
	})
}

func doDeposit(c *vault.Controller, vaultAddr common.Address, amount *big.Int) tea.Cmd {
	return mutate("deposit", func(ctx context.Context) (vault.Outcome, error) {
		return c.Deposit(ctx, vaultAddr, amount)
	})
}

func doPing(c *vault.Controller, vaultAddr common.Address, prevLastPing uint64) tea.Cmd {
	return mutate("ping", func(ctx context.Context) (vault.Outcome, error) {
		return c.Ping(ctx, vaultAddr, prevLastPing)
	})
}

func doChangePeriod(c *vault.Controller, vaultAddr common.Address, days int) tea.Cmd {
	return mutate("change period", func(ctx context.Context) (vault.Outcome, error) {
		return c.ChangePeriod(ctx, vaultAddr, days)
	})
}

func doUpdateHeir(c *vault.Controller, vaultAddr, heir common.Address) tea.Cmd {
	return mutate("update heir", func(ctx context.Context) (vault.Outcome, error) {
		return c.UpdateHeir(ctx, vaultAddr, heir)
	})
}

func doCancel(c *vault.Controller, vaultAddr common.Address) tea.Cmd {
	return mutate("cancel inheritance", func(ctx context.Context) (vault.Outcome, error) {
		return c.Cancel(ctx, vaultAddr)
	})
}

func doClaim(c *vault.Controller, vaultAddr common.Address, canClaim bool) tea.Cmd {
	return mutate("claim", func(ctx context.Context) (vault.Outcome, error) {
		return c.Claim(ctx, vaultAddr, canClaim)
	})
}

func doWithdraw(c *vault.Controller, vaultAddr common.Address, amount *big.Int, to common.Address, canClaim bool) tea.Cmd {
	return mutate("withdraw", func(ctx context.Context) (vault.Outcome, error) {
		return c.OwnerWithdraw(ctx, vaultAddr, amount, to, canClaim)
	})
}

func doRelease(c *vault.Controller, supported, canClaim bool, balance *big.Int, acknowledged bool) tea.Cmd {
	return mutate("release", func(ctx context.Context) (vault.Outcome, error) {
		return c.Release(ctx, supported, canClaim, balance, acknowledged)
	})
}

func mutate(op string, run func(ctx context.Context) (vault.Outcome, error)) tea.Cmd {
	return func() tea.Msg {
		// Covers simulation, the user's approval in the wallet, and the
		// confirmation wait.
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		defer cancel()
		outcome, err := run(ctx)
		return mutationDoneMsg{op: op, outcome: outcome, err: err}
	}
}

// copyToClipboard copies text to clipboard
func copyToClipboard(text, label string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err == nil {
			return clipboardCopiedMsg{label: label}
		}
		return nil
	}
}

// clearToastLater expires the status line after a short delay
func clearToastLater() tea.Cmd {
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return clearToastMsg{}
	})
}

// initLogViewport initializes the log viewport
func initLogViewport() tea.Cmd {
	return func() tea.Msg {
		return logInitMsg{}
	}
}

// -------------------- MODEL HELPER METHODS --------------------
// These methods help with state management and command generation

// addLog adds a log entry with timestamp and type
func (m *model) addLog(logType, message string) {
	if !m.logEnabled || !m.logReady || m.logger == nil {
		return
	}

	switch logType {
	case "info":
		m.logger.Info(message)
	case "success":
		m.logger.Info("✓", "msg", message)
	case "error":
		m.logger.Error(message)
	case "warning":
		m.logger.Warn(message)
	case "debug":
		m.logger.Debug(message)
	default:
		m.logger.Print(message)
	}

	m.updateLogViewport()
}

// updateLogViewport refreshes the viewport content with log output
func (m *model) updateLogViewport() {
	if !m.logReady || m.logBuffer == nil {
		return
	}
	m.logViewport.SetContent(m.logBuffer.String())
	m.logViewport.GotoBottom()
}

// toast sets the transient status line and mirrors it into the log panel
func (m *model) toast(kind, msg string) tea.Cmd {
	m.toastMsg = msg
	m.toastKind = kind
	m.toastTime = time.Now()
	m.addLog(kind, msg)
	return clearToastLater()
}

// refreshAll re-reads everything for the loaded vault
func (m *model) refreshAll() tea.Cmd {
	if m.vaultAddr == (common.Address{}) || m.syncer == nil {
		return nil
	}
	return tea.Batch(
		refreshDetails(m.syncer, m.vaultAddr),
		refreshBalances(m.syncer, m.account, m.vaultAddr),
		refreshTimer(m.syncer, m.vaultAddr),
	)
}

// maybeResolveHeir fires a resolution for the heir input if it has text.
// The tracker sequence makes the latest keystroke win.
func (m *model) maybeResolveHeir(input string, tracker *resolver.Tracker) tea.Cmd {
	if m.resolve == nil || input == "" {
		m.resolvedHeir = nil
		m.resolving = false
		return nil
	}
	m.resolving = true
	seq := tracker.Next()
	return resolveIdentity(m.resolve, seq, input)
}

// displayAmount renders a raw token amount with the loaded decimals
func (m *model) displayAmount(raw *big.Int) string {
	decimals := 18
	symbol := "WLD"
	if m.balances != nil {
		if m.balances.Decimals > 0 {
			decimals = int(m.balances.Decimals)
		}
		if m.balances.Symbol != "" {
			symbol = m.balances.Symbol
		}
	}
	if raw == nil {
		return "—"
	}
	return fmt.Sprintf("%s %s", helpers.FormatUnits(raw, decimals), symbol)
}
