// Package logpanel renders the collapsible log panel under the page
// content.
package logpanel

import (
	"fmt"

	"wld-vault-tui/helpers"
	"wld-vault-tui/styles"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

// chromeRows is what the header, nav, panel borders and margins take up
// above the log panel.
const chromeRows = 10

// Height returns the viewport height for a screen of the given height:
// at least 5 rows, at most a third of the screen or 15 rows.
func Height(screen int) int {
	available := helpers.Max(5, screen-chromeRows)
	return helpers.Min(available, helpers.Min(screen/3, 15))
}

// Render renders the log panel. The caller keeps its own viewport's
// Height in sync via Height.
func Render(width, height int, logReady bool, logSpinnerView string, vp viewport.Model) string {
	title := lipgloss.NewStyle().
		Foreground(styles.CAccent2).
		Bold(true).
		Render("Log")

	panelHeight := Height(height)
	vp.Height = panelHeight

	border := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.CBorder).
		Padding(0, 1).
		Width(helpers.Max(0, width-2)).
		Height(panelHeight + 2) // +2 for title and spacing

	if !logReady {
		return border.Render(title + "\n\ninitializing...\n" + logSpinnerView)
	}

	// percentage indicator when the content overflows the viewport
	scrollInfo := ""
	if vp.TotalLineCount() > vp.Height {
		scrollInfo = lipgloss.NewStyle().
			Foreground(styles.CMuted).
			Render(fmt.Sprintf(" [%d%%]", int(vp.ScrollPercent()*100)))
	}

	return border.Render(title + scrollInfo + "\n\n" + vp.View())
}
