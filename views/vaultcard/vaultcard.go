// Package vaultcard renders the vault summary panel.
package vaultcard

import (
	"fmt"
	"strings"
	"time"

	"wld-vault-tui/helpers"
	"wld-vault-tui/styles"
	"wld-vault-tui/vault"

	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"
)

// State is everything the card needs from the model.
type State struct {
	Account     common.Address
	VaultAddr   common.Address
	Details     *vault.Details
	Balances    *vault.Balances
	Status      *vault.Status
	CreatedTime uint64
	ExplorerURL string
	CopiedMsg   string
	Loading     bool
	LoadedAt    time.Time
	Now         time.Time
	SpinnerView string
}

func (s State) isOwner() bool { return s.Details != nil && s.Details.Owner == s.Account }
func (s State) isHeir() bool  { return s.Details != nil && s.Details.Heir == s.Account }

// Render renders the vault summary panel
func Render(s State) string {
	h := styles.TitleStyle.Render("Inheritance Vault")

	// Vault address with an explorer hyperlink (OSC 8)
	explorerURL := fmt.Sprintf("%s/address/%s", s.ExplorerURL, s.VaultAddr.Hex())
	addrStyle := lipgloss.NewStyle().Foreground(styles.CMuted).Underline(true)
	sub := fmt.Sprintf("\x1b]8;;%s\x1b\\%s\x1b]8;;\x1b\\", explorerURL, addrStyle.Render(s.VaultAddr.Hex()))
	if s.CopiedMsg != "" {
		sub += "  " + lipgloss.NewStyle().Foreground(styles.CAccent).Render(s.CopiedMsg)
	}

	if s.Loading || s.Details == nil {
		return h + "\n" + sub + "\n\n" + s.SpinnerView + " reading vault state…"
	}

	lines := []string{h, sub, ""}

	// role line
	switch {
	case s.isOwner():
		lines = append(lines, labelLine("Role", lipgloss.NewStyle().Foreground(styles.CAccent).Render("owner")))
	case s.isHeir():
		lines = append(lines, labelLine("Role", lipgloss.NewStyle().Foreground(styles.CAccent2).Render("heir")))
	default:
		lines = append(lines, labelLine("Role", lipgloss.NewStyle().Foreground(styles.CMuted).Render("observer")))
	}

	cancelled := s.Details.Owner == s.Details.Heir
	if cancelled {
		lines = append(lines, labelLine("Heir", lipgloss.NewStyle().Foreground(styles.CWarn).Render("inheritance cancelled (heir = owner)")))
	} else {
		lines = append(lines, labelLine("Heir", helpers.ShortenAddr(s.Details.Heir.Hex())))
	}
	lines = append(lines, labelLine("Owner", helpers.ShortenAddr(s.Details.Owner.Hex())))
	lines = append(lines, labelLine("Period", helpers.FormatDuration(s.Details.Interval)))
	lines = append(lines, labelLine("Last ping", time.Unix(int64(s.Details.LastPing), 0).Format("2006-01-02 15:04:05")))
	if s.CreatedTime > 0 {
		lines = append(lines, labelLine("Created", time.Unix(int64(s.CreatedTime), 0).Format("2006-01-02")))
	}
	lines = append(lines, "")

	// Countdown. The contract's canClaim read gates actions elsewhere;
	// for display the remaining time is derived from lastPing + interval
	// against the clock, so it keeps ticking between refreshes and shows
	// something sensible before the first status read lands.
	v := vault.Vault{
		Owner:             s.Details.Owner,
		Heir:              s.Details.Heir,
		HeartbeatInterval: s.Details.Interval,
		LastPing:          s.Details.LastPing,
	}
	var canClaim *bool
	if s.Status != nil {
		canClaim = &s.Status.CanClaim
	}
	now := s.Now
	if now.IsZero() {
		now = time.Now()
	}
	if v.ExpiredAt(now, canClaim) {
		lines = append(lines, styles.StatusBadStyle.Render("EXPIRED: vault is claimable by the heir"))
	} else {
		remaining := v.TimeRemainingAt(now)
		if remaining == 0 && s.Status != nil {
			// local clock ran past expiry but the contract says not yet
			// claimable; its last read wins until the next refresh
			remaining = s.Status.Remaining
		}
		lines = append(lines, labelLine("Remaining",
			styles.StatusGoodStyle.Render(helpers.FormatDuration(remaining))))
	}
	lines = append(lines, "")

	// balances
	if s.Balances != nil {
		decimals := int(s.Balances.Decimals)
		symbol := s.Balances.Symbol
		if s.Balances.Vault != nil {
			lines = append(lines, balanceLine("Vault", helpers.FormatUnits(s.Balances.Vault, decimals), symbol))
		}
		if s.Balances.Wallet != nil {
			lines = append(lines, balanceLine("Wallet", helpers.FormatUnits(s.Balances.Wallet, decimals), symbol))
		}
	} else {
		lines = append(lines, lipgloss.NewStyle().Foreground(styles.CMuted).Render("Balances loading…"))
	}

	lines = append(lines, "", lipgloss.NewStyle().Foreground(styles.CMuted).
		Render("Refreshed "+helpers.LoadedAt(s.LoadedAt, s.Loading)))

	return strings.Join(lines, "\n")
}

func labelLine(label, value string) string {
	return fmt.Sprintf("%-10s %s",
		lipgloss.NewStyle().Foreground(styles.CMuted).Render(label),
		lipgloss.NewStyle().Foreground(styles.CText).Render(value),
	)
}

func balanceLine(label, amount, symbol string) string {
	return fmt.Sprintf("%-10s %s  %s",
		lipgloss.NewStyle().Foreground(styles.CMuted).Render(label),
		lipgloss.NewStyle().Foreground(styles.CText).Render(amount),
		lipgloss.NewStyle().Foreground(styles.CAccent2).Bold(true).Render(symbol),
	)
}

// Nav returns the navigation bar for the vault view. The keys shown depend
// on the viewer's role and the vault's claimability.
func Nav(width int, s State, supportsRelease bool) string {
	var keys []string
	if s.isOwner() {
		claimable := s.Status != nil && s.Status.CanClaim
		keys = append(keys,
			styles.Key("p")+" ping",
			styles.Key("d")+" deposit",
		)
		if !claimable {
			keys = append(keys, styles.Key("w")+" withdraw")
		}
		keys = append(keys,
			styles.Key("h")+" heir",
			styles.Key("i")+" period",
			styles.Key("x")+" cancel",
		)
		if claimable && supportsRelease {
			keys = append(keys, styles.Key("R")+" release")
		}
	}
	if s.isHeir() && s.Status != nil && s.Status.CanClaim {
		keys = append(keys, styles.Key("c")+" claim")
	}
	keys = append(keys,
		styles.Key("q")+" qr",
		styles.Key("y")+" copy addr",
		styles.Key("r")+" refresh",
		styles.Key("l")+" logger",
		styles.Key("Esc")+" quit",
	)
	return styles.NavStyle.Width(width).Render(strings.Join(keys, "   "))
}
