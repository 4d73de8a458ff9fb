package src20_test

import (
	"crypto/sha256"
	"errors"
	"strings"
	"testing"

	"github.com/Mohsinsiddi/src20kit/internal/src20"
	"github.com/Mohsinsiddi/src20kit/internal/src20/src20test"
	"github.com/ethereum/go-ethereum/common"
	"github.com/palantir/stacktrace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Salt
// ---------------------------------------------------------------------------

func TestRandomSaltsDiffer(t *testing.T) {
	a, err := src20.NewRandomSalt()
	require.NoError(t, err)
	b, err := src20.NewRandomSalt()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.False(t, a.IsZero())
}

func TestSaltHexRoundTrip(t *testing.T) {
	s, err := src20.NewRandomSalt()
	require.NoError(t, err)

	parsed, err := src20.ParseSalt(s.String())
	require.NoError(t, err)
	assert.Equal(t, s, parsed)
}

func TestParseSaltShortIsLeftPadded(t *testing.T) {
	s, err := src20.ParseSalt("0x1")
	require.NoError(t, err)
	assert.Equal(t, byte(1), s[31])
	assert.Equal(t, "0x"+strings.Repeat("0", 63)+"1", s.String())
}

func TestParseSaltInvalid(t *testing.T) {
	for _, in := range []string{"", "0x", "zz", "0x" + strings.Repeat("ab", 33)} {
		_, err := src20.ParseSalt(in)
		assert.Error(t, err, in)
	}
}

// ---------------------------------------------------------------------------
// ContractID
// ---------------------------------------------------------------------------

func TestContractIDFromAddress(t *testing.T) {
	addr := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	id := src20.ContractIDFromAddress(addr)

	assert.Equal(t, make([]byte, 12), id[:12])
	assert.Equal(t, addr, id.Address())
	assert.Equal(t, "0x0000000000000000000000005fbdb2315678afecb367f032d93f642f64180aa3", id.String())
}

func TestParseContractID(t *testing.T) {
	addr := "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	fromAddr, err := src20.ParseContractID(addr)
	require.NoError(t, err)

	fromID, err := src20.ParseContractID(fromAddr.String())
	require.NoError(t, err)
	assert.Equal(t, fromAddr, fromID)
	assert.Equal(t, common.HexToAddress(addr), fromID.Address())
}

func TestParseContractIDRejects(t *testing.T) {
	for _, in := range []string{
		"",
		"0x1234",
		"0x" + strings.Repeat("zz", 20),
		"0x" + strings.Repeat("11", 32), // non-zero padding
	} {
		_, err := src20.ParseContractID(in)
		assert.Error(t, err, in)
	}
}

// ---------------------------------------------------------------------------
// SubID / AssetID
// ---------------------------------------------------------------------------

func TestParseSubIDEmptyIsDefault(t *testing.T) {
	sub, err := src20.ParseSubID("")
	require.NoError(t, err)
	assert.Equal(t, src20.DefaultSubID, sub)

	sub, err = src20.ParseSubID("0x02")
	require.NoError(t, err)
	assert.Equal(t, byte(2), sub[31])
}

func TestAssetIDIsSha256OfContractAndSub(t *testing.T) {
	id := src20.ContractIDFromAddress(common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"))
	sub, err := src20.ParseSubID("0x07")
	require.NoError(t, err)

	want := sha256.Sum256(append(id[:], sub[:]...))
	assert.Equal(t, src20.AssetID(want), src20.AssetIDFor(sub, id))
}

func TestDefaultAssetIDUsesZeroSubID(t *testing.T) {
	id := src20.ContractIDFromAddress(common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"))
	assert.Equal(t, src20.AssetIDFor(src20.DefaultSubID, id), src20.DefaultAssetID(id))

	other := src20.ContractIDFromAddress(common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"))
	assert.NotEqual(t, src20.DefaultAssetID(id), src20.DefaultAssetID(other))
}

func TestParseAssetIDRoundTrip(t *testing.T) {
	id := src20.DefaultAssetID(src20.ContractIDFromAddress(common.HexToAddress("0x01")))
	parsed, err := src20.ParseAssetID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

// ---------------------------------------------------------------------------
// Identity
// ---------------------------------------------------------------------------

func TestIdentity(t *testing.T) {
	addr := common.HexToAddress(src20test.SignerAddr)
	a := src20.AddressIdentity(addr)
	assert.Equal(t, addr, a.Address())
	assert.False(t, a.IsContract())
	assert.Equal(t, "Address("+src20test.SignerAddr+")", a.String())

	c := src20.ContractIdentity(src20.ContractIDFromAddress(addr))
	assert.Equal(t, addr, c.Address())
	assert.True(t, c.IsContract())
	assert.True(t, strings.HasPrefix(c.String(), "Contract("))
}

// ---------------------------------------------------------------------------
// Configurables
// ---------------------------------------------------------------------------

func TestDefaultConfigurables(t *testing.T) {
	c := src20.DefaultConfigurables()
	assert.Equal(t, "MYTKN", c.Name)
	assert.Equal(t, "MTK", c.Symbol)
	assert.Equal(t, uint8(9), c.Decimals)

	_, err := src20.CreateConfigurables(c.Name, c.Symbol, c.Decimals)
	assert.NoError(t, err)
}

func TestCreateConfigurables(t *testing.T) {
	c, err := src20.CreateConfigurables("ABCDE", "XYZ", 18)
	require.NoError(t, err)
	assert.Equal(t, src20.Configurables{Name: "ABCDE", Symbol: "XYZ", Decimals: 18}, c)
}

func TestCreateConfigurablesRejects(t *testing.T) {
	cases := []struct{ name, symbol string }{
		{"ABCD", "XYZ"},
		{"ABCDEF", "XYZ"},
		{"ABCDE", "XY"},
		{"ABCDE", "WXYZ"},
		{"ABCé", "XYZ"}, // 5 bytes, not ASCII
		{"ABCDE", "\xffYZ"},
	}
	for _, tc := range cases {
		_, err := src20.CreateConfigurables(tc.name, tc.symbol, 9)
		require.Error(t, err, tc)
		assert.True(t, errors.Is(stacktrace.RootCause(err), src20.ErrInvalidConfigurable), tc)
	}
}
