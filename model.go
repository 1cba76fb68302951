package main

import (
	"strings"
	"time"

	"wld-vault-tui/bridge"
	"wld-vault-tui/config"
	"wld-vault-tui/resolver"
	"wld-vault-tui/rpc"
	"wld-vault-tui/session"
	"wld-vault-tui/styles"
	"wld-vault-tui/vault"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
)

// Refresh cadence. Balances are cheap full reads; the countdown read is
// lighter and runs more often so the displayed timer stays honest.
const (
	balanceRefreshEvery = 30 * time.Second
	timerRefreshEvery   = 15 * time.Second
)

// -------------------- MODEL --------------------

// model represents the application state following The Elm Architecture
type model struct {
	w, h int

	activePage config.Page

	cfg        config.Config
	configPath string

	// chain + bridge plumbing
	ethClient     *rpc.Client
	rpcConnected  bool
	rpcConnecting bool
	bridgeClient  bridge.Bridge
	bridgeUp      bool

	sessionMgr *session.Manager
	syncer     *vault.Synchronizer
	ctrl       *vault.Controller
	resolve    *resolver.Resolver

	// session state
	account   common.Address
	connected bool // authenticated this run, mutations allowed
	restored  bool // session restored from disk, read-only until reconnect

	// vault state
	vaultAddr       common.Address
	details         *vault.Details
	balances        *vault.Balances
	status          *vault.Status
	createdBlock    uint64
	createdTime     uint64
	supportsRelease bool
	loadingVault    bool
	lastRefresh     time.Time
	now             time.Time

	// periodic refresh ticks re-arm themselves, so they are started
	// exactly once per process
	ticksArmed bool

	// heir-side discovery
	heirVaults      []common.Address
	heirVaultIdx    int
	scanFailed      bool
	showHeirChooser bool

	// create form
	heirInput      textinput.Model
	periodInput    textinput.Model
	focusedInput   int // 0 = heir, 1 = period
	resolvedHeir   *resolver.Resolution
	resolving      bool
	createError    string
	createTracker  resolver.Tracker
	updateTracker  resolver.Tracker

	// heir update mode reuses the create-page heir input
	updatingHeir bool

	// modal huh forms
	depositForm  *huh.Form
	withdrawForm *huh.Form
	periodForm   *huh.Form

	// release confirmation dialog
	showReleaseDialog  bool
	releaseAck         bool
	releaseYesSelected bool

	// mutation in flight
	busy   bool
	busyOp string

	// deposit QR panel
	showQR bool

	// transient status line
	toastMsg  string
	toastKind string // "info", "success", "error"
	toastTime time.Time

	spin spinner.Model

	// logger panel
	logEnabled  bool
	logger      *log.Logger
	logBuffer   *strings.Builder
	logViewport viewport.Model
	logReady    bool
	logSpinner  spinner.Model
}

// -------------------- INIT --------------------

// newModel creates and initializes a new model with configuration from disk
func newModel() model {
	configPath := config.DefaultPath()
	cfg := config.LoadOrCreate(configPath)

	br := bridge.New(cfg.BridgeURL)
	store := config.NewSessionStore(configPath, &cfg)
	mgr := session.NewManager(store, br)
	mgr.RequireVerify = cfg.RequireVerify
	mgr.ActionID = cfg.ActionID

	// heir input for the create form
	heirIn := textinput.New()
	heirIn.Placeholder = "0x… address, name.eth or @handle"
	heirIn.Prompt = "Heir: "
	heirIn.PromptStyle = lipgloss.NewStyle().Foreground(styles.CAccent)
	heirIn.TextStyle = lipgloss.NewStyle().Foreground(styles.CText)
	heirIn.Cursor.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)
	heirIn.Width = 48

	periodIn := textinput.New()
	periodIn.Placeholder = "30"
	periodIn.Prompt = "Heartbeat period (days): "
	periodIn.PromptStyle = lipgloss.NewStyle().Foreground(styles.CAccent)
	periodIn.TextStyle = lipgloss.NewStyle().Foreground(styles.CText)
	periodIn.Cursor.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)
	periodIn.CharLimit = 3
	periodIn.Width = 8

	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)

	vp := viewport.New(0, 20) // Will be resized in Update on first WindowSizeMsg
	vp.Style = lipgloss.NewStyle().
		Foreground(styles.CText).
		Background(styles.CPanel)

	logSpin := spinner.New()
	logSpin.Spinner = spinner.Dot
	logSpin.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)

	return model{
		activePage:    config.PageConnect,
		cfg:           cfg,
		configPath:    configPath,
		rpcConnecting: cfg.RPCURL != "",
		bridgeClient:  br,
		sessionMgr:    mgr,
		heirInput:     heirIn,
		periodInput:   periodIn,
		spin:          sp,
		logEnabled:    cfg.Logger,
		logViewport:   vp,
		logBuffer:     &strings.Builder{},
		logSpinner:    logSpin,
	}
}

// factoryAddr returns the configured factory contract address.
func (m *model) factoryAddr() common.Address {
	return common.HexToAddress(m.cfg.FactoryAddress)
}

// tokenAddr returns the configured token contract address.
func (m *model) tokenAddr() common.Address {
	return common.HexToAddress(m.cfg.TokenAddress)
}

// isOwner reports whether the connected account owns the loaded vault.
func (m *model) isOwner() bool {
	return m.details != nil && m.details.Owner == m.account && m.account != (common.Address{})
}

// isHeir reports whether the connected account is the designated heir.
func (m *model) isHeir() bool {
	return m.details != nil && m.details.Heir == m.account && m.account != (common.Address{})
}

// canMutate reports whether mutations are currently allowed: a live
// bridge, an authenticated (not merely restored) session, and no other
// mutation in flight.
func (m *model) canMutate() bool {
	return m.bridgeUp && m.connected && !m.busy
}

// Init implements tea.Model interface and returns initial commands
func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spin.Tick}
	if m.logEnabled {
		cmds = append(cmds, initLogViewport(), m.logSpinner.Tick)
	}
	if m.cfg.RPCURL != "" {
		cmds = append(cmds, connectRPC(m.cfg.RPCURL, m.factoryAddr(), m.tokenAddr()))
	}
	cmds = append(cmds, probeBridge(m.bridgeClient), restoreSession(m.sessionMgr))
	return tea.Batch(cmds...)
}
