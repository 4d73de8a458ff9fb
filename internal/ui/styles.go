package ui

import (
	"math/big"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette.
var (
	ColorSuccess   = lipgloss.Color("#00D26A") // green  — mined, success
	ColorWarning   = lipgloss.Color("#FFB800") // yellow — pending, warning
	ColorError     = lipgloss.Color("#FF4444") // red    — revert, error
	ColorAddress   = lipgloss.Color("#00B4D8") // cyan   — addresses, ids, hashes
	ColorValue     = lipgloss.Color("#FFFFFF") // white bold — amounts
	ColorMeta      = lipgloss.Color("#555555") // dim gray  — metadata
	ColorBorder    = lipgloss.Color("#1E3A5F") // dark blue — UI chrome
	ColorToken     = lipgloss.Color("#9B5DE5") // purple    — token names
	ColorHighlight = lipgloss.Color("#F15BB5") // pink      — selected rows
)

// Base styles.
var (
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	StyleAddress = lipgloss.NewStyle().Foreground(ColorAddress)
	StyleValue   = lipgloss.NewStyle().Foreground(ColorValue).Bold(true)
	StyleMeta    = lipgloss.NewStyle().Foreground(ColorMeta)
	StyleToken   = lipgloss.NewStyle().Foreground(ColorToken).Bold(true)

	StyleBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	StyleSelected = lipgloss.NewStyle().
			Background(ColorHighlight).
			Foreground(lipgloss.Color("#000000")).
			Bold(true)

	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorToken).
			Bold(true).
			MarginBottom(1)
)

// Banner returns the one-line tool banner.
func Banner(version string) string {
	return StyleToken.Render("src20kit") + " " + StyleMeta.Render(version+"  ·  SRC20 deploy & call harness")
}

// Success formats a success message.
func Success(msg string) string { return StyleSuccess.Render("✓ " + msg) }

// Warn formats a warning message.
func Warn(msg string) string { return StyleWarning.Render("⚠ " + msg) }

// Err formats an error message.
func Err(msg string) string { return StyleError.Render("✗ " + msg) }

// Info formats an informational message.
func Info(msg string) string { return StyleAddress.Render("ℹ ") + msg }

// Hint formats a suggestion for the next command to run.
func Hint(msg string) string { return StyleMeta.Render("→ " + msg) }

// Addr formats an address, id or hash.
func Addr(a string) string { return StyleAddress.Render(a) }

// Val formats a value.
func Val(v string) string { return StyleValue.Render(v) }

// Meta formats metadata text.
func Meta(m string) string { return StyleMeta.Render(m) }

// Token formats a token name or symbol.
func Token(t string) string { return StyleToken.Render(t) }

// TruncateAddr shortens an address for display: 0x1234…5678.
func TruncateAddr(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

// FormatAmount renders a base-unit amount with decimals, trimming trailing
// zeros: 1500000000 with 9 decimals is "1.5".
func FormatAmount(amount uint64, decimals uint8) string {
	s := new(big.Int).SetUint64(amount).String()
	if decimals == 0 {
		return s
	}
	d := int(decimals)
	if len(s) <= d {
		s = strings.Repeat("0", d-len(s)+1) + s
	}
	whole, frac := s[:len(s)-d], strings.TrimRight(s[len(s)-d:], "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}
