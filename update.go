package main

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"wld-vault-tui/bridge"
	"wld-vault-tui/config"
	"wld-vault-tui/helpers"
	"wld-vault-tui/resolver"
	"wld-vault-tui/rpc"
	"wld-vault-tui/styles"
	"wld-vault-tui/vault"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
)

// -------------------- TEMP FORM STORAGE --------------------
// Temporary form field storage (package-level to avoid pointer-to-copy issues)
var (
	tempDepositAmount string
	tempWithdrawAmt   string
	tempWithdrawTo    string
	tempPeriodDays    string
)

// pctHotkey maps the percent shortcuts offered on the amount forms.
func pctHotkey(key string) (int, bool) {
	switch key {
	case "alt+1":
		return 25, true
	case "alt+2":
		return 50, true
	case "alt+3":
		return 75, true
	case "alt+4", "alt+m":
		return 100, true
	}
	return 0, false
}

// presetDepositAmount rebuilds the deposit form with pct percent of the
// wallet balance filled in.
func (m *model) presetDepositAmount(pct int) {
	if m.balances == nil || m.balances.Wallet == nil {
		return
	}
	amount := helpers.PctOfBalance(m.balances.Wallet, pct)
	m.createDepositForm(helpers.FormatUnits(amount, int(m.balances.Decimals)))
}

// presetWithdrawAmount rebuilds the withdraw form with pct percent of the
// vault balance filled in.
func (m *model) presetWithdrawAmount(pct int) {
	if m.balances == nil || m.balances.Vault == nil {
		return
	}
	amount := helpers.PctOfBalance(m.balances.Vault, pct)
	m.createWithdrawForm(helpers.FormatUnits(amount, int(m.balances.Decimals)))
}

func (m *model) createDepositForm(preset string) {
	tempDepositAmount = preset

	available := "—"
	decimals := 18
	if m.balances != nil {
		decimals = int(m.balances.Decimals)
		if m.balances.Wallet != nil {
			available = helpers.FormatUnits(m.balances.Wallet, decimals)
		}
	}

	m.depositForm = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Deposit Amount").
				Description(fmt.Sprintf("Available: %s (Alt+1/2/3/4: 25/50/75/100%%, Esc to cancel)", available)).
				Value(&tempDepositAmount).
				Placeholder("0.0").
				Validate(func(s string) error {
					raw, err := helpers.ToRaw(s, decimals)
					if err != nil {
						return fmt.Errorf("invalid amount")
					}
					if raw.Sign() <= 0 {
						return fmt.Errorf("amount must be greater than 0")
					}
					if m.balances != nil && m.balances.Wallet != nil && raw.Cmp(m.balances.Wallet) > 0 {
						return fmt.Errorf("amount exceeds wallet balance")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeCatppuccin())

	m.depositForm.Init()
}

func (m *model) createWithdrawForm(preset string) {
	tempWithdrawAmt = preset
	if !helpers.IsValidEthAddress(tempWithdrawTo) {
		tempWithdrawTo = m.account.Hex()
	}

	available := "—"
	decimals := 18
	if m.balances != nil {
		decimals = int(m.balances.Decimals)
		if m.balances.Vault != nil {
			available = helpers.FormatUnits(m.balances.Vault, decimals)
		}
	}

	m.withdrawForm = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Withdraw Amount").
				Description(fmt.Sprintf("Vault holds: %s (Alt+1/2/3/4: 25/50/75/100%%)", available)).
				Value(&tempWithdrawAmt).
				Placeholder("0.0").
				Validate(func(s string) error {
					raw, err := helpers.ToRaw(s, decimals)
					if err != nil {
						return fmt.Errorf("invalid amount")
					}
					if raw.Sign() <= 0 {
						return fmt.Errorf("amount must be greater than 0")
					}
					if m.balances != nil && m.balances.Vault != nil && raw.Cmp(m.balances.Vault) > 0 {
						return fmt.Errorf("amount exceeds vault balance")
					}
					return nil
				}),

			huh.NewInput().
				Title("Recipient").
				Description("Defaults to your own wallet").
				Value(&tempWithdrawTo).
				Placeholder("0x...").
				Validate(func(s string) error {
					if !helpers.IsValidEthAddress(s) {
						return fmt.Errorf("invalid ethereum address")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeCatppuccin())

	m.withdrawForm.Init()
}

func (m *model) createPeriodForm() {
	tempPeriodDays = ""
	if m.details != nil {
		tempPeriodDays = strconv.FormatUint(m.details.Interval/86_400, 10)
	}

	m.periodForm = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Heartbeat Period").
				Description("Days until the heir can claim without a ping (1-365)").
				Value(&tempPeriodDays).
				Placeholder("30").
				Validate(func(s string) error {
					days, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || days < 1 || days > 365 {
						return fmt.Errorf("period must be 1-365 days")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeCatppuccin())

	m.periodForm.Init()
}

// buildChainClients wires the synchronizer, controller and resolver once
// both the RPC client and the account are known.
func (m *model) buildChainClients() {
	if m.ethClient == nil {
		return
	}
	scanner := rpc.NewScanner(m.ethClient, m.factoryAddr(), m.cfg.FactoryDeployBlock)
	m.syncer = vault.NewSynchronizer(m.ethClient, scanner, m.factoryAddr())
	m.resolve = resolver.New(resolver.NewENSDirectory(m.ethClient.Client))
	if m.account != (common.Address{}) {
		waiter := rpc.NewWaiter(m.ethClient)
		m.ctrl = vault.NewController(m.ethClient, m.bridgeClient, waiter, m.factoryAddr(), m.tokenAddr(), m.account)
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Handle deposit form updates first
	if m.depositForm != nil {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			if keyMsg.String() == "esc" {
				m.depositForm = nil
				return m, nil
			}
			if pct, ok := pctHotkey(keyMsg.String()); ok {
				m.presetDepositAmount(pct)
				return m, nil
			}
		}

		form, cmd := m.depositForm.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.depositForm = f

			if m.depositForm.State == huh.StateCompleted {
				decimals := 18
				if m.balances != nil {
					decimals = int(m.balances.Decimals)
				}
				raw, err := helpers.ToRaw(tempDepositAmount, decimals)
				m.depositForm = nil
				if err != nil {
					return m, m.toast("error", "invalid deposit amount")
				}
				m.busy = true
				m.busyOp = "deposit"
				m.addLog("info", fmt.Sprintf("Depositing %s into vault %s", tempDepositAmount, helpers.ShortenAddr(m.vaultAddr.Hex())))
				return m, doDeposit(m.ctrl, m.vaultAddr, raw)
			}
			if m.depositForm.State == huh.StateAborted {
				m.depositForm = nil
				return m, nil
			}
		}
		return m, cmd
	}

	// Handle withdraw form updates
	if m.withdrawForm != nil {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			if keyMsg.String() == "esc" {
				m.withdrawForm = nil
				return m, nil
			}
			if pct, ok := pctHotkey(keyMsg.String()); ok {
				m.presetWithdrawAmount(pct)
				return m, nil
			}
		}

		form, cmd := m.withdrawForm.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.withdrawForm = f

			if m.withdrawForm.State == huh.StateCompleted {
				decimals := 18
				if m.balances != nil {
					decimals = int(m.balances.Decimals)
				}
				raw, err := helpers.ToRaw(tempWithdrawAmt, decimals)
				to := common.HexToAddress(tempWithdrawTo)
				m.withdrawForm = nil
				if err != nil {
					return m, m.toast("error", "invalid withdraw amount")
				}
				canClaim := m.status != nil && m.status.CanClaim
				m.busy = true
				m.busyOp = "withdraw"
				m.addLog("info", fmt.Sprintf("Withdrawing %s to %s", tempWithdrawAmt, helpers.ShortenAddr(to.Hex())))
				return m, doWithdraw(m.ctrl, m.vaultAddr, raw, to, canClaim)
			}
			if m.withdrawForm.State == huh.StateAborted {
				m.withdrawForm = nil
				return m, nil
			}
		}
		return m, cmd
	}

	// Handle period form updates
	if m.periodForm != nil {
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
			m.periodForm = nil
			return m, nil
		}

		form, cmd := m.periodForm.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.periodForm = f

			if m.periodForm.State == huh.StateCompleted {
				days, err := strconv.Atoi(strings.TrimSpace(tempPeriodDays))
				m.periodForm = nil
				if err != nil {
					return m, m.toast("error", "period must be 1-365 days")
				}
				m.busy = true
				m.busyOp = "change period"
				return m, doChangePeriod(m.ctrl, m.vaultAddr, days)
			}
			if m.periodForm.State == huh.StateAborted {
				m.periodForm = nil
				return m, nil
			}
		}
		return m, cmd
	}

	// Release confirmation dialog swallows keys while open
	if m.showReleaseDialog {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc", "n", "N":
				m.showReleaseDialog = false
				m.releaseAck = false
				return m, nil
			case " ", "a":
				m.releaseAck = !m.releaseAck
				return m, nil
			case "left", "right", "tab":
				m.releaseYesSelected = !m.releaseYesSelected
				return m, nil
			case "enter", "y", "Y":
				confirmed := m.releaseYesSelected || keyMsg.String() == "y" || keyMsg.String() == "Y"
				if !confirmed {
					m.showReleaseDialog = false
					return m, nil
				}
				if !m.releaseAck {
					return m, m.toast("error", "acknowledge the warning first (space)")
				}
				m.showReleaseDialog = false
				canClaim := m.status != nil && m.status.CanClaim
				var vaultBal *big.Int
				if m.balances != nil {
					vaultBal = m.balances.Vault
				}
				m.busy = true
				m.busyOp = "release"
				return m, doRelease(m.ctrl, m.supportsRelease, canClaim, vaultBal, true)
			}
		}
		return m, nil
	}

	// Heir vault chooser overlay
	if m.showHeirChooser {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "up", "k":
				if m.heirVaultIdx > 0 {
					m.heirVaultIdx--
				}
			case "down", "j":
				if m.heirVaultIdx < len(m.heirVaults)-1 {
					m.heirVaultIdx++
				}
			case "enter":
				m.showHeirChooser = false
				m.vaultAddr = m.heirVaults[m.heirVaultIdx]
				m.activePage = config.PageVault
				m.addLog("info", "Selected vault "+helpers.ShortenAddr(m.vaultAddr.Hex()))
				return m, tea.Batch(m.afterVaultSelected()...)
			case "esc", "ctrl+c":
				return m, tea.Quit
			}
		}
		return m, nil
	}

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.w, m.h = msg.Width, msg.Height
		m.logViewport.Width = helpers.Max(0, m.w-6)
		return m, nil

	case tea.FocusMsg:
		// Terminal regained focus: the countdown may be badly stale.
		if m.vaultAddr != (common.Address{}) {
			m.addLog("debug", "Focus regained, refreshing")
			return m, m.refreshAll()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)
		if m.logEnabled {
			m.logSpinner, cmd = m.logSpinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case logInitMsg:
		if !m.logEnabled {
			return m, nil
		}
		m.logger = log.NewWithOptions(m.logBuffer, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
		})
		m.logger.SetLevel(log.DebugLevel)
		m.logger.SetStyles(&log.Styles{
			Timestamp: lipgloss.NewStyle().Foreground(styles.CMuted),
			Caller:    lipgloss.NewStyle().Faint(true),
			Prefix:    lipgloss.NewStyle().Bold(true).Foreground(styles.CAccent2),
			Message:   lipgloss.NewStyle().Foreground(styles.CText),
			Key:       lipgloss.NewStyle().Foreground(styles.CAccent),
			Value:     lipgloss.NewStyle().Foreground(styles.CText),
			Separator: lipgloss.NewStyle().Faint(true),
			Levels: map[log.Level]lipgloss.Style{
				log.DebugLevel: lipgloss.NewStyle().Foreground(styles.CMuted).SetString("DEBUG"),
				log.InfoLevel:  lipgloss.NewStyle().Foreground(styles.CAccent2).SetString("INFO"),
				log.WarnLevel:  lipgloss.NewStyle().Foreground(styles.CWarn).SetString("WARN"),
				log.ErrorLevel: lipgloss.NewStyle().Foreground(styles.CDanger).SetString("ERROR"),
			},
		})
		m.logReady = true
		m.addLog("info", "Logger enabled")
		return m, nil

	case rpcConnectedMsg:
		m.rpcConnecting = false
		if msg.err != nil {
			m.rpcConnected = false
			return m, m.toast("error", "RPC connection failed: "+msg.err.Error())
		}
		m.ethClient = msg.client
		m.rpcConnected = true
		m.buildChainClients()
		m.addLog("success", "Connected to "+m.cfg.RPCURL)
		if m.account != (common.Address{}) {
			m.loadingVault = true
			return m, loadVault(m.syncer, m.account)
		}
		return m, nil

	case bridgeProbeMsg:
		m.bridgeUp = msg.available
		if !msg.available {
			return m, m.toast("warning", "wallet bridge offline: start the companion daemon to enable transactions")
		}
		m.addLog("success", "Wallet bridge available")
		return m, nil

	case sessionRestoredMsg:
		if !msg.ok {
			return m, nil
		}
		m.account = msg.account
		m.restored = true
		m.buildChainClients()
		cmds = append(cmds, m.toast("info", "session restored: "+helpers.ShortenAddr(msg.account.Hex())+" (read-only until reconnect)"))
		if m.syncer != nil {
			m.loadingVault = true
			m.activePage = config.PageVault
			cmds = append(cmds, loadVault(m.syncer, m.account))
		}
		return m, tea.Batch(cmds...)

	case walletConnectedMsg:
		if msg.err != nil {
			switch {
			case errors.Is(msg.err, bridge.ErrCancelled):
				return m, m.toast("info", "connection cancelled in wallet")
			case errors.Is(msg.err, bridge.ErrUnavailable):
				m.bridgeUp = false
				return m, m.toast("error", "wallet bridge offline: start the companion daemon")
			default:
				return m, m.toast("error", "connect failed: "+msg.err.Error())
			}
		}
		m.account = msg.account
		m.connected = true
		m.restored = false
		m.buildChainClients()
		m.activePage = config.PageVault
		cmds = append(cmds, m.toast("success", "connected as "+helpers.ShortenAddr(msg.account.Hex())))
		if !m.sessionMgr.Verified() {
			cmds = append(cmds, verifySession(m.sessionMgr))
		}
		if m.syncer != nil {
			m.loadingVault = true
			cmds = append(cmds, loadVault(m.syncer, m.account))
		}
		return m, tea.Batch(cmds...)

	case verifyResultMsg:
		if msg.err != nil {
			if errors.Is(msg.err, bridge.ErrCancelled) {
				return m, m.toast("warning", "verification declined; transactions stay disabled")
			}
			return m, m.toast("error", "verification failed: "+msg.err.Error())
		}
		return m, m.toast("success", "verification passed")

	case vaultLoadedMsg:
		m.loadingVault = false
		if msg.err != nil {
			return m, m.toast("error", "vault lookup failed: "+msg.err.Error())
		}
		d := msg.discovery
		m.scanFailed = d.ScanFailed
		if d.ScanFailed {
			cmds = append(cmds, m.toast("warning", "heir scan unavailable; you may still be an heir to an older vault"))
		}
		switch {
		case d.Vault != (common.Address{}):
			m.vaultAddr = d.Vault
			m.activePage = config.PageVault
			cmds = append(cmds, m.afterVaultSelected()...)
		case len(d.HeirVaults) > 1:
			m.heirVaults = d.HeirVaults
			m.heirVaultIdx = 0
			m.showHeirChooser = true
		default:
			// no vault anywhere: offer creation
			m.activePage = config.PageCreate
			m.heirInput.Focus()
			cmds = append(cmds, refreshBalances(m.syncer, m.account, common.Address{}))
		}
		return m, tea.Batch(cmds...)

	case detailsMsg:
		if msg.err != nil {
			return m, m.toast("warning", "detail refresh failed, keeping previous state")
		}
		d := msg.details
		m.details = &d
		return m, nil

	case balancesMsg:
		if msg.err != nil {
			m.addLog("warning", "balance refresh failed: "+msg.err.Error())
			return m, nil
		}
		b := msg.balances
		m.balances = &b
		m.lastRefresh = time.Now()
		m.addLog("debug", fmt.Sprintf("Balances: wallet %s, vault %s",
			m.displayAmount(b.Wallet), m.displayAmount(b.Vault)))
		return m, nil

	case statusMsg:
		if msg.err != nil {
			m.addLog("warning", "timer refresh failed: "+msg.err.Error())
			return m, nil
		}
		st := msg.status
		m.status = &st
		return m, nil

	case creationMetaMsg:
		if msg.meta != nil {
			m.createdBlock = msg.meta.Block
			m.createdTime = msg.meta.Timestamp
			m.addLog("debug", fmt.Sprintf("Vault created at block %d", m.createdBlock))
		}
		return m, nil

	case releaseSupportMsg:
		m.supportsRelease = msg.supported
		return m, nil

	case balanceTickMsg:
		cmds = append(cmds, scheduleBalanceRefresh())
		if m.vaultAddr != (common.Address{}) && m.syncer != nil {
			cmds = append(cmds, refreshBalances(m.syncer, m.account, m.vaultAddr))
		}
		return m, tea.Batch(cmds...)

	case timerTickMsg:
		cmds = append(cmds, scheduleTimerRefresh())
		if m.vaultAddr != (common.Address{}) && m.syncer != nil {
			cmds = append(cmds, refreshTimer(m.syncer, m.vaultAddr), refreshDetails(m.syncer, m.vaultAddr))
		}
		return m, tea.Batch(cmds...)

	case displayTickMsg:
		m.now = time.Now()
		return m, scheduleDisplayTick()

	case resolveResultMsg:
		tracker := &m.createTracker
		if m.activePage == config.PageVault {
			tracker = &m.updateTracker
		}
		if !tracker.Latest(msg.seq) {
			// a newer keystroke's resolution is in flight
			return m, nil
		}
		m.resolving = false
		m.resolvedHeir = msg.res
		if msg.res == nil {
			m.addLog("debug", "no match for "+msg.input)
		} else if msg.res.Name != "" {
			m.addLog("info", fmt.Sprintf("Resolved %s → %s", msg.res.Name, helpers.ShortenAddr(msg.res.Address.Hex())))
		}
		return m, nil

	case mutationDoneMsg:
		m.busy = false
		m.busyOp = ""
		if msg.err != nil {
			var simErr *vault.SimulationError
			if errors.As(msg.err, &simErr) {
				return m, m.toast("error", simErr.Friendly)
			}
			if errors.Is(msg.err, rpc.ErrReverted) {
				return m, m.toast("error", msg.op+" reverted on-chain")
			}
			return m, m.toast("error", msg.op+" failed: "+msg.err.Error())
		}
		switch msg.outcome {
		case vault.OutcomeCancelled:
			return m, m.toast("info", msg.op+" cancelled in wallet")
		case vault.OutcomePending:
			cmds = append(cmds, m.toast("warning", msg.op+" submitted; confirmation pending, will recheck"))
		case vault.OutcomeConfirmed:
			cmds = append(cmds, m.toast("success", msg.op+" confirmed"))
		}
		// Create and release change which vault exists; rediscover.
		if msg.op == "create" || msg.op == "release" {
			m.vaultAddr = common.Address{}
			m.details = nil
			m.status = nil
			m.loadingVault = true
			cmds = append(cmds, loadVault(m.syncer, m.account))
		} else {
			cmds = append(cmds, m.refreshAll())
		}
		return m, tea.Batch(cmds...)

	case clipboardCopiedMsg:
		return m, m.toast("success", msg.label+" copied to clipboard")

	case clearToastMsg:
		m.toastMsg = ""
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	return m, tea.Batch(cmds...)
}

// afterVaultSelected returns the commands that follow vault selection:
// full refresh, creation metadata, release probe and, on the first
// selection only, the self-re-arming periodic ticks.
func (m *model) afterVaultSelected() []tea.Cmd {
	var owner, heir common.Address
	if m.details != nil {
		owner, heir = m.details.Owner, m.details.Heir
	}
	cmds := []tea.Cmd{
		m.refreshAll(),
		loadCreationMeta(m.syncer, m.vaultAddr, owner, heir, m.account),
		probeReleaseSupport(m.syncer, m.account),
	}
	if !m.ticksArmed {
		m.ticksArmed = true
		m.now = time.Now()
		cmds = append(cmds, scheduleBalanceRefresh(), scheduleTimerRefresh(), scheduleDisplayTick())
	}
	return cmds
}

func (m *model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.activePage {
	case config.PageConnect:
		return m.handleConnectKeys(msg)
	case config.PageCreate:
		return m.handleCreateKeys(msg)
	case config.PageVault:
		return m.handleVaultKeys(msg)
	}
	return m, nil
}

func (m *model) handleConnectKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "c":
		if !m.bridgeUp {
			return m, tea.Batch(probeBridge(m.bridgeClient), m.toast("warning", "probing wallet bridge…"))
		}
		m.addLog("info", "Requesting wallet auth")
		return m, connectWallet(m.sessionMgr)
	case "l", "L":
		return m, m.toggleLogger()
	case "q", "esc":
		return m, tea.Quit
	}
	return m, nil
}

func (m *model) handleCreateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.vaultAddr != (common.Address{}) {
			m.activePage = config.PageVault
			return m, nil
		}
		return m, tea.Quit

	case "tab", "shift+tab", "up", "down":
		if m.focusedInput == 0 {
			m.focusedInput = 1
			m.heirInput.Blur()
			m.periodInput.Focus()
		} else {
			m.focusedInput = 0
			m.periodInput.Blur()
			m.heirInput.Focus()
		}
		return m, nil

	case "enter":
		return m.submitCreate()
	}

	// delegate to the focused input and fire resolution on heir edits
	var cmd tea.Cmd
	if m.focusedInput == 0 {
		before := m.heirInput.Value()
		m.heirInput, cmd = m.heirInput.Update(msg)
		if after := m.heirInput.Value(); after != before {
			m.createError = ""
			return m, tea.Batch(cmd, m.maybeResolveHeir(after, &m.createTracker))
		}
	} else {
		m.periodInput, cmd = m.periodInput.Update(msg)
	}
	return m, cmd
}

func (m *model) submitCreate() (tea.Model, tea.Cmd) {
	if !m.canMutate() {
		m.createError = "connect through the wallet bridge first"
		return m, nil
	}
	if m.resolving {
		m.createError = "still resolving heir…"
		return m, nil
	}
	if m.resolvedHeir == nil {
		m.createError = "heir not resolved: enter an address or a registered name"
		return m, nil
	}
	days, err := strconv.Atoi(strings.TrimSpace(m.periodInput.Value()))
	if err != nil || days < 1 || days > 365 {
		m.createError = "period must be 1-365 days"
		return m, nil
	}
	m.createError = ""
	m.busy = true
	m.busyOp = "create"
	m.addLog("info", fmt.Sprintf("Creating vault: heir %s, period %dd", helpers.ShortenAddr(m.resolvedHeir.Address.Hex()), days))
	return m, doCreate(m.ctrl, m.resolvedHeir.Address, days)
}

func (m *model) handleVaultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// heir update mode: keystrokes go to the input, not the hotkeys
	if m.updatingHeir {
		return m.handleUpdateHeirKeys(msg)
	}

	// QR panel: only copy/close keys apply
	if m.showQR {
		switch msg.String() {
		case "y":
			return m, copyToClipboard(m.vaultAddr.Hex(), "vault address")
		case "q", "esc":
			m.showQR = false
		}
		return m, nil
	}

	switch msg.String() {
	case "esc":
		return m, tea.Quit

	case "r":
		m.addLog("info", "Manual refresh")
		return m, m.refreshAll()

	case "l", "L":
		return m, m.toggleLogger()

	case "y":
		return m, copyToClipboard(m.vaultAddr.Hex(), "vault address")

	case "q":
		m.showQR = true
		return m, nil

	case "p":
		if !m.requireOwnerMutate() {
			return m, m.mutateBlockedToast()
		}
		prev := uint64(0)
		if m.details != nil {
			prev = m.details.LastPing
		}
		m.busy = true
		m.busyOp = "ping"
		return m, doPing(m.ctrl, m.vaultAddr, prev)

	case "d":
		if !m.requireOwnerMutate() {
			return m, m.mutateBlockedToast()
		}
		m.createDepositForm("")
		return m, nil

	case "w":
		if !m.requireOwnerMutate() {
			return m, m.mutateBlockedToast()
		}
		if m.status != nil && m.status.CanClaim {
			return m, m.toast("error", vault.ErrWithdrawClosed.Error())
		}
		m.createWithdrawForm("")
		return m, nil

	case "i":
		if !m.requireOwnerMutate() {
			return m, m.mutateBlockedToast()
		}
		m.createPeriodForm()
		return m, nil

	case "h":
		if !m.requireOwnerMutate() {
			return m, m.mutateBlockedToast()
		}
		// reuse the create-page heir input for the update flow
		m.heirInput.SetValue("")
		m.resolvedHeir = nil
		m.heirInput.Focus()
		m.updatingHeir = true
		return m, nil

	case "x":
		if !m.requireOwnerMutate() {
			return m, m.mutateBlockedToast()
		}
		m.busy = true
		m.busyOp = "cancel inheritance"
		return m, doCancel(m.ctrl, m.vaultAddr)

	case "c":
		if !m.isHeir() || !m.canMutate() {
			return m, m.mutateBlockedToast()
		}
		canClaim := m.status != nil && m.status.CanClaim
		if !canClaim {
			return m, m.toast("error", vault.ErrNotClaimable.Error())
		}
		m.busy = true
		m.busyOp = "claim"
		return m, doClaim(m.ctrl, m.vaultAddr, canClaim)

	case "R":
		if !m.requireOwnerMutate() {
			return m, m.mutateBlockedToast()
		}
		if !m.supportsRelease {
			return m, m.toast("error", vault.ErrReleaseUnsupported.Error())
		}
		m.showReleaseDialog = true
		m.releaseAck = false
		m.releaseYesSelected = false
		return m, nil
	}
	return m, nil
}

func (m *model) handleUpdateHeirKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.updatingHeir = false
		m.heirInput.Blur()
		return m, nil
	case "enter":
		if m.resolving {
			return m, m.toast("info", "still resolving heir…")
		}
		if m.resolvedHeir == nil {
			return m, m.toast("error", "heir not resolved")
		}
		m.updatingHeir = false
		m.heirInput.Blur()
		m.busy = true
		m.busyOp = "update heir"
		return m, doUpdateHeir(m.ctrl, m.vaultAddr, m.resolvedHeir.Address)
	}

	var cmd tea.Cmd
	before := m.heirInput.Value()
	m.heirInput, cmd = m.heirInput.Update(msg)
	if after := m.heirInput.Value(); after != before {
		return m, tea.Batch(cmd, m.maybeResolveHeir(after, &m.updateTracker))
	}
	return m, cmd
}

// requireOwnerMutate gates owner-only mutations.
func (m *model) requireOwnerMutate() bool {
	return m.isOwner() && m.canMutate()
}

func (m *model) mutateBlockedToast() tea.Cmd {
	switch {
	case m.busy:
		return m.toast("info", m.busyOp+" still in flight")
	case !m.bridgeUp:
		return m.toast("error", "wallet bridge offline: transactions disabled")
	case m.restored && !m.connected:
		return m.toast("warning", "read-only session: reconnect to transact")
	default:
		return m.toast("error", "not allowed for this account")
	}
}

func (m *model) toggleLogger() tea.Cmd {
	m.logEnabled = !m.logEnabled
	m.cfg.Logger = m.logEnabled
	config.Save(m.configPath, m.cfg)
	if m.logEnabled {
		if m.w > 0 {
			m.logViewport.Width = m.w - 6
		}
		m.logReady = false
		return tea.Batch(initLogViewport(), m.logSpinner.Tick)
	}
	m.logReady = false
	m.logger = nil
	m.logBuffer.Reset()
	return nil
}
