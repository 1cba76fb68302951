// Package deposit renders the deposit panel: the vault address as a
// scannable QR code for topping up from an external wallet.
package deposit

import (
	"fmt"
	"strings"

	"wld-vault-tui/styles"

	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"
	"github.com/mdp/qrterminal/v3"
)

// Render renders the vault address QR panel
func Render(vaultAddr common.Address, symbol string, copiedMsg string) string {
	h := styles.TitleStyle.Render(fmt.Sprintf("Deposit %s", symbol))

	var qr strings.Builder
	qrterminal.GenerateWithConfig(vaultAddr.Hex(), qrterminal.Config{
		Level:      qrterminal.L,
		Writer:     &qr,
		HalfBlocks: true,
		QuietZone:  1,
	})

	addr := lipgloss.NewStyle().Foreground(styles.CMuted).Render(vaultAddr.Hex())
	hint := lipgloss.NewStyle().Foreground(styles.CMuted).
		Render("Scan or send " + symbol + " directly to the vault address. " +
			"Press " + styles.Key("y") + " to copy, " + styles.Key("q") + " to close.")

	lines := []string{h, "", qr.String(), addr}
	if copiedMsg != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(styles.CAccent).Render(copiedMsg))
	}
	lines = append(lines, "", hint)
	return strings.Join(lines, "\n")
}
