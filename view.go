package main

import (
	"wld-vault-tui/config"
	"wld-vault-tui/helpers"
	"wld-vault-tui/styles"
	"wld-vault-tui/views/deposit"
	"wld-vault-tui/views/logpanel"
	"wld-vault-tui/views/vaultcard"

	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"
)

// -------------------- VIEW --------------------

func (m *model) renderReleaseDialog() string {
	var (
		dialogBoxStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#874BFD")).
				Padding(1, 2).
				Background(cPanel)

		buttonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFF7DB")).
				Background(lipgloss.Color("#888B7E")).
				Padding(0, 3).
				MarginTop(1)

		activeButtonStyle = buttonStyle.Copy().
				Foreground(lipgloss.Color("#FFF7DB")).
				Background(lipgloss.Color("#F25D94")).
				MarginRight(2).
				Underline(true)
	)

	msg := helpers.FadeString("Release your expired vault and withdraw everything?", "#F25D94", "#EDFF82")
	question := lipgloss.NewStyle().Width(54).Align(lipgloss.Center).Render(msg)

	warning := lipgloss.NewStyle().
		Foreground(cWarn).
		Width(54).
		Align(lipgloss.Center).
		Render("The countdown has expired. Your heir can claim at any moment; the release may land second and fail.")

	ackBox := "[ ]"
	if m.releaseAck {
		ackBox = "[x]"
	}
	ack := lipgloss.NewStyle().Foreground(cText).Render(ackBox + " I understand the heir may claim first (space to toggle)")

	var okButton, cancelButton string
	if m.releaseYesSelected {
		okButton = activeButtonStyle.Render("Yes")
		cancelButton = buttonStyle.Render("No")
	} else {
		okButton = buttonStyle.Copy().MarginRight(2).Render("Yes")
		cancelButton = activeButtonStyle.Copy().MarginRight(0).Render("No")
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Top, okButton, cancelButton)
	ui := lipgloss.JoinVertical(lipgloss.Center, question, "", warning, "", ack, buttons)

	dialog := dialogBoxStyle.Render(ui)

	return lipgloss.Place(
		m.w, m.h,
		lipgloss.Center, lipgloss.Center,
		dialog,
	)
}

func (m *model) renderHeirChooser() string {
	var (
		dialogBoxStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#874BFD")).
				Padding(1, 2).
				Background(cPanel)
	)

	title := lipgloss.NewStyle().
		Foreground(cAccent2).
		Bold(true).
		Align(lipgloss.Center).
		Width(52).
		Render("You are the heir of several vaults")

	var rows []string
	for i, v := range m.heirVaults {
		line := helpers.ShortenAddr(v.Hex())
		if i == m.heirVaultIdx {
			line = lipgloss.NewStyle().Foreground(cAccent).Bold(true).Render("▶ " + v.Hex())
		} else {
			line = lipgloss.NewStyle().Foreground(cText).Render("  " + line)
		}
		rows = append(rows, line)
	}

	help := lipgloss.NewStyle().
		Foreground(cMuted).
		Align(lipgloss.Center).
		Width(52).
		MarginTop(1).
		Render("↑/↓: Navigate • Enter: Select • Esc: Quit")

	ui := lipgloss.JoinVertical(lipgloss.Left, title, "")
	for _, r := range rows {
		ui = lipgloss.JoinVertical(lipgloss.Left, ui, r)
	}
	ui = lipgloss.JoinVertical(lipgloss.Left, ui, help)

	dialog := dialogBoxStyle.Render(ui)

	return lipgloss.Place(
		m.w, m.h,
		lipgloss.Center, lipgloss.Center,
		dialog,
	)
}

func (m *model) globalHeader() string {
	title := titleStyle.Render(helpers.FadeString("WLD Inheritance Vault", "#F25D94", "#EDFF82"))

	var addrDisplay string
	if m.account != (common.Address{}) {
		tag := ""
		if m.restored && !m.connected {
			tag = lipgloss.NewStyle().Foreground(cWarn).Render(" (read-only)")
		}
		addrDisplay = lipgloss.NewStyle().
			Foreground(cAccent2).
			Bold(true).
			Render("Account: "+helpers.ShortenAddr(m.account.Hex())) + tag
	} else {
		addrDisplay = lipgloss.NewStyle().
			Foreground(cMuted).
			Render("Account: not connected")
	}

	// RPC status dot
	var rpcStatus string
	switch {
	case m.rpcConnected:
		rpcStatus = lipgloss.NewStyle().Foreground(cAccent).Render("●") + " RPC"
	case m.rpcConnecting:
		rpcStatus = lipgloss.NewStyle().Foreground(cWarn).Render("○") + " RPC connecting…"
	default:
		rpcStatus = lipgloss.NewStyle().Foreground(cDanger).Render("○") + " RPC"
	}

	// bridge status dot
	var bridgeStatus string
	if m.bridgeUp {
		bridgeStatus = lipgloss.NewStyle().Foreground(cAccent).Render("●") + " Bridge"
	} else {
		bridgeStatus = lipgloss.NewStyle().Foreground(cDanger).Render("○") + " Bridge"
	}

	left := title + "   " + addrDisplay
	right := rpcStatus + "  " + bridgeStatus

	gap := max(1, m.w-8-lipgloss.Width(left)-lipgloss.Width(right))
	return left + lipgloss.NewStyle().Width(gap).Render("") + right
}

func (m *model) renderConnectPage() string {
	title := styles.TitleStyle.Render("Connect")

	body := lipgloss.NewStyle().Foreground(cText).Render(
		"This vault keeps your WLD under a dead man's switch:\n" +
			"ping it while you're alive, and your heir can claim it\n" +
			"only after the countdown runs out.")

	var status string
	if m.bridgeUp {
		status = lipgloss.NewStyle().Foreground(cAccent).Render("Wallet bridge is up.")
	} else {
		status = lipgloss.NewStyle().Foreground(cWarn).
			Render("Wallet bridge is offline. Start the companion daemon, then press Enter.")
	}

	hint := hotkeyStyle.Render("Enter") + " connect wallet   " +
		hotkeyStyle.Render("l") + " logger   " +
		hotkeyStyle.Render("q") + " quit"

	return title + "\n\n" + body + "\n\n" + status + "\n\n" + hint
}

func (m *model) renderCreatePage() string {
	title := styles.TitleStyle.Render("Create Your Vault")

	intro := lipgloss.NewStyle().Foreground(cMuted).
		Render("No vault yet for this account. Pick an heir and a heartbeat period.")

	inputView := m.heirInput.View() + "\n" + m.resolutionLine() + "\n" + m.periodInput.View() + "\n"

	inputView += "\n" + hotkeyStyle.Render("Tab") + " next field   " +
		hotkeyStyle.Render("Enter") + " create   " +
		hotkeyStyle.Render("Esc") + " back"

	if m.createError != "" {
		errorStyle := lipgloss.NewStyle().Foreground(cWarn).Bold(true)
		inputView += "\n" + errorStyle.Render(m.createError)
	}

	if m.busy {
		inputView += "\n\n" + m.spin.View() + " creating vault…"
	}

	return title + "\n\n" + intro + "\n\n" + inputView
}

// resolutionLine shows the live state of the heir identity lookup.
func (m *model) resolutionLine() string {
	switch {
	case m.resolving:
		return m.spin.View() + lipgloss.NewStyle().Foreground(cMuted).Render(" resolving…")
	case m.resolvedHeir != nil && m.resolvedHeir.Name != "":
		return lipgloss.NewStyle().Foreground(cAccent).
			Render("✓ " + m.resolvedHeir.Name + " → " + helpers.ShortenAddr(m.resolvedHeir.Address.Hex()))
	case m.resolvedHeir != nil:
		return lipgloss.NewStyle().Foreground(cAccent).
			Render("✓ " + helpers.ShortenAddr(m.resolvedHeir.Address.Hex()))
	case m.heirInput.Value() != "":
		return lipgloss.NewStyle().Foreground(cMuted).Render("no match yet")
	}
	return ""
}

func (m *model) renderVaultPage() string {
	state := vaultcard.State{
		Account:     m.account,
		VaultAddr:   m.vaultAddr,
		Details:     m.details,
		Balances:    m.balances,
		Status:      m.status,
		CreatedTime: m.createdTime,
		ExplorerURL: m.cfg.ExplorerURL,
		Loading:     m.loadingVault,
		LoadedAt:    m.lastRefresh,
		Now:         m.now,
		SpinnerView: m.spin.View(),
	}

	// modal content replaces the card body
	switch {
	case m.showQR:
		symbol := "WLD"
		if m.balances != nil && m.balances.Symbol != "" {
			symbol = m.balances.Symbol
		}
		return deposit.Render(m.vaultAddr, symbol, "")

	case m.depositForm != nil:
		return styles.TitleStyle.Render("Deposit") + "\n\n" + m.depositForm.View()

	case m.withdrawForm != nil:
		return styles.TitleStyle.Render("Withdraw") + "\n\n" + m.withdrawForm.View()

	case m.periodForm != nil:
		return styles.TitleStyle.Render("Heartbeat Period") + "\n\n" + m.periodForm.View()

	case m.updatingHeir:
		return styles.TitleStyle.Render("Update Heir") + "\n\n" +
			m.heirInput.View() + "\n" + m.resolutionLine() + "\n\n" +
			hotkeyStyle.Render("Enter") + " update   " + hotkeyStyle.Render("Esc") + " cancel"
	}

	content := vaultcard.Render(state)

	if m.busy {
		content += "\n\n" + m.spin.View() + " " + m.busyOp + "…"
	}
	return content
}

func (m *model) toastLine() string {
	if m.toastMsg == "" {
		return ""
	}
	var c lipgloss.Color
	switch m.toastKind {
	case "success":
		c = cAccent
	case "error":
		c = cDanger
	case "warning":
		c = cWarn
	default:
		c = cAccent2
	}
	return lipgloss.NewStyle().Foreground(c).Bold(true).Render(m.toastMsg)
}

func (m *model) View() string {
	headerPanel := panelStyle.Width(max(0, m.w-2)).Render(m.globalHeader())

	var pageContent string
	var nav string

	switch m.activePage {
	case config.PageConnect:
		pageContent = panelStyle.Width(max(0, m.w-2)).Render(m.renderConnectPage())
		nav = ""

	case config.PageCreate:
		pageContent = panelStyle.Width(max(0, m.w-2)).Render(m.renderCreatePage())
		nav = ""

	case config.PageVault:
		state := vaultcard.State{
			Account: m.account,
			Details: m.details,
			Status:  m.status,
		}
		pageContent = panelStyle.Width(max(0, m.w-2)).Render(m.renderVaultPage())
		nav = vaultcard.Nav(m.w-2, state, m.supportsRelease)
	}

	if toast := m.toastLine(); toast != "" {
		pageContent = lipgloss.JoinVertical(lipgloss.Left, pageContent,
			lipgloss.NewStyle().Padding(0, 2).Render(toast))
	}

	// Overlays use lipgloss.Place internally, so just return them
	if m.showReleaseDialog {
		return m.renderReleaseDialog()
	}
	if m.showHeirChooser {
		return m.renderHeirChooser()
	}

	// Render log panel only if enabled
	if m.logEnabled {
		// Ensure viewport height stays in sync with the rendered panel
		m.logViewport.Height = logpanel.Height(m.h)

		logPanel := logpanel.Render(m.w, m.h, m.logReady, m.logSpinner.View(), m.logViewport)
		content := lipgloss.JoinVertical(lipgloss.Left, headerPanel, pageContent, nav, logPanel)
		return appStyle.Render(content)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, headerPanel, pageContent, nav)
	return appStyle.Render(content)
}
