package contract

import "sort"

// BuiltinKind describes a contract type whose ABI is embedded in the binary.
// New built-ins register themselves via init() in their own <name>_abi.go.
type BuiltinKind struct {
	ID          string     // machine key, e.g. "src20"
	Name        string     // human label
	Description string     // one-line summary
	ABI         []ABIEntry // full ABI, ready to use
}

var builtinRegistry = map[string]BuiltinKind{}

// RegisterBuiltin adds a built-in ABI to the global registry.
func RegisterBuiltin(b BuiltinKind) {
	builtinRegistry[b.ID] = b
}

// GetBuiltin returns a built-in by ID. ok is false if not found.
func GetBuiltin(id string) (BuiltinKind, bool) {
	b, ok := builtinRegistry[id]
	return b, ok
}

// BuiltinABI returns the parsed go-ethereum ABI of a built-in.
func BuiltinABI(id string) (*Parsed, error) {
	b, ok := builtinRegistry[id]
	if !ok {
		return nil, ErrUnknownBuiltin
	}
	return Parse(b.ABI)
}

// AllBuiltins returns all registered built-ins sorted by ID.
func AllBuiltins() []BuiltinKind {
	out := make([]BuiltinKind, 0, len(builtinRegistry))
	for _, b := range builtinRegistry {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
