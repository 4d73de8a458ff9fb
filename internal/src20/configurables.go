package src20

import (
	"errors"

	"github.com/palantir/stacktrace"
)

// ErrInvalidConfigurable is returned for token constants the contract cannot hold.
var ErrInvalidConfigurable = errors.New("invalid configurable")

const (
	NameLength   = 5
	SymbolLength = 3
)

// Configurables are the deploy-time token constants.
type Configurables struct {
	Name     string
	Symbol   string
	Decimals uint8
}

// DefaultConfigurables returns the constants used when none are supplied.
func DefaultConfigurables() Configurables {
	return Configurables{Name: "MYTKN", Symbol: "MTK", Decimals: 9}
}

// CreateConfigurables validates and bundles token constants. The name must be
// exactly 5 and the symbol exactly 3 ASCII characters.
func CreateConfigurables(name, symbol string, decimals uint8) (Configurables, error) {
	if err := checkASCII("name", name, NameLength); err != nil {
		return Configurables{}, err
	}
	if err := checkASCII("symbol", symbol, SymbolLength); err != nil {
		return Configurables{}, err
	}
	return Configurables{Name: name, Symbol: symbol, Decimals: decimals}, nil
}

// constructorArgs returns the values packed after the bytecode.
func (c Configurables) constructorArgs() []interface{} {
	return []interface{}{c.Name, c.Symbol, c.Decimals}
}

func checkASCII(field, value string, length int) error {
	if len(value) != length {
		return stacktrace.Propagate(ErrInvalidConfigurable, "Token %v '%v' must be exactly %d characters, got %d", field, value, length, len(value))
	}
	for i := 0; i < len(value); i++ {
		if value[i] > 0x7f {
			return stacktrace.Propagate(ErrInvalidConfigurable, "Token %v '%v' must be ASCII", field, value)
		}
	}
	return nil
}
