package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// ---------------------------------------------------------------------------
// Message helpers
// ---------------------------------------------------------------------------

func TestMessageHelpersKeepText(t *testing.T) {
	assert.Contains(t, Success("deployed"), "✓")
	assert.Contains(t, Success("deployed"), "deployed")
	assert.Contains(t, Warn("careful"), "⚠")
	assert.Contains(t, Err("reverted"), "✗")
	assert.Contains(t, Info("note"), "note")
	assert.Contains(t, Hint("run src20kit info"), "run src20kit info")
	assert.Contains(t, Addr("0xABCDEF"), "0xABCDEF")
	assert.Contains(t, Val("1.5"), "1.5")
	assert.Contains(t, Meta("meta"), "meta")
	assert.Contains(t, Token("MTK"), "MTK")
	assert.Contains(t, Banner("v0.1.0"), "v0.1.0")
}

func TestTruncateAddr(t *testing.T) {
	assert.Equal(t, "0x5FbD…0aa3", TruncateAddr("0x5FbDB2315678afecb367f032d93F642f64180aa3"))
	assert.Equal(t, "0x1234", TruncateAddr("0x1234"))
	assert.Equal(t, "", TruncateAddr(""))
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		amount   uint64
		decimals uint8
		want     string
	}{
		{1_500_000_000, 9, "1.5"},
		{1_000_000_000, 9, "1"},
		{1, 9, "0.000000001"},
		{0, 9, "0"},
		{42, 0, "42"},
		{18_446_744_073_709_551_615, 18, "18.446744073709551615"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatAmount(tc.amount, tc.decimals), "%d/%d", tc.amount, tc.decimals)
	}
}

// ---------------------------------------------------------------------------
// Table / KeyValueBlock
// ---------------------------------------------------------------------------

func TestTableRender(t *testing.T) {
	tbl := NewTable(Column{Title: "ALIAS", Width: 8}, Column{Title: "ADDRESS", Width: 12})
	tbl.AddRow("mytoken", "0x5FbDB2315678afecb367")
	tbl.AddRow("short")

	out := tbl.Render()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "ALIAS")
	assert.Contains(t, lines[1], "--------")
	assert.Contains(t, lines[2], "mytoken")
	assert.Contains(t, lines[2], "0x5FbDB2315…")
	assert.Contains(t, lines[3], "short")
}

func TestPad(t *testing.T) {
	assert.Equal(t, "ab  ", pad("ab", 4))
	assert.Equal(t, "abcd", pad("abcd", 4))
	assert.Equal(t, "abc…", pad("abcdef", 4))
	assert.Equal(t, "a", pad("abc", 1))
	assert.Equal(t, "é   ", pad("é", 4))
}

func TestKeyValueBlock(t *testing.T) {
	out := KeyValueBlock("Token", [][2]string{{"Name", "MYTKN"}, {"Symbol", "MTK"}})
	assert.Contains(t, out, "Token")
	assert.Contains(t, out, "Name")
	assert.Contains(t, out, "MYTKN")
	assert.Less(t, strings.Index(out, "Name"), strings.Index(out, "Symbol"))

	assert.NotEmpty(t, KeyValueBlock("", nil))
}

// ---------------------------------------------------------------------------
// Confirm / Spinner
// ---------------------------------------------------------------------------

func TestConfirmFrom(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, ConfirmFrom(strings.NewReader("y\n"), &out, "Deploy?"))
	assert.True(t, ConfirmFrom(strings.NewReader(" YES \n"), &out, "Deploy?"))
	assert.False(t, ConfirmFrom(strings.NewReader("n\n"), &out, "Deploy?"))
	assert.False(t, ConfirmFrom(strings.NewReader(""), &out, "Deploy?"))
	assert.Contains(t, out.String(), "Deploy?")
}

func TestSpinnerStopTwice(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	var out bytes.Buffer
	sp := NewSpinnerTo(&out, "waiting")
	sp.Start()
	sp.Stop()
	sp.Stop()
	assert.Contains(t, out.String(), "waiting")
}

func TestRunReturnsFnError(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	boom := errors.New("boom")
	assert.Equal(t, boom, Run("working", func() error { return boom }))
	assert.NoError(t, Run("working", func() error { return nil }))
}

// ---------------------------------------------------------------------------
// Picker model
// ---------------------------------------------------------------------------

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPickerNavigationAndSelect(t *testing.T) {
	items := []PickerItem{{Label: "a", Value: "1"}, {Label: "b", Value: "2"}, {Label: "c", Value: "3"}}
	var m tea.Model = newPickerModel("Pick", items)

	m, _ = m.Update(key("j"))
	m, _ = m.Update(key("j"))
	m, _ = m.Update(key("j")) // clamps at the end
	assert.Equal(t, 2, m.(pickerModel).cursor)
	assert.Contains(t, m.View(), "Pick")

	m, _ = m.Update(key("k"))
	m, cmd := m.Update(key("enter"))
	require.NotNil(t, cmd)
	require.NotNil(t, m.(pickerModel).selected)
	assert.Equal(t, "2", m.(pickerModel).selected.Value)
	assert.Empty(t, m.View())
}

func TestPickerJumpAndCancel(t *testing.T) {
	items := []PickerItem{{Label: "a"}, {Label: "b"}, {Label: "c"}}
	var m tea.Model = newPickerModel("Pick", items)

	m, _ = m.Update(key("G"))
	assert.Equal(t, 2, m.(pickerModel).cursor)
	m, _ = m.Update(key("g"))
	assert.Equal(t, 0, m.(pickerModel).cursor)

	m, cmd := m.Update(key("esc"))
	require.NotNil(t, cmd)
	assert.True(t, m.(pickerModel).quitting)
	assert.Nil(t, m.(pickerModel).selected)
}

func TestPickItemEmpty(t *testing.T) {
	_, err := PickItem("Pick", nil)
	assert.True(t, errors.Is(err, ErrNothingToPick))
}
