package contract

// src20 is the SRC-20 multi-asset token interface with mint and burn.
// Every asset is addressed by a 32-byte id; read methods return a leading
// presence flag that is false for assets the contract never minted.
//
// Function selectors:
//
//	total_assets()                 → asset count
//	total_supply(bytes32)          → (bool, uint64)
//	name(bytes32)                  → (bool, string)
//	symbol(bytes32)                → (bool, string)
//	decimals(bytes32)              → (bool, uint8)
//	mint(address,bytes32,uint64)
//	burn(bytes32,uint64)
func init() {
	RegisterBuiltin(BuiltinKind{
		ID:          "src20",
		Name:        "SRC-20 Native Asset",
		Description: "Multi-asset token keyed by sub id, with owner-free mint and burn.",
		ABI:         src20ABI,
	})
}

var src20ABI = []ABIEntry{
	{
		Type: "constructor",
		Inputs: []ABIParam{
			{Name: "name_", Type: "string"},
			{Name: "symbol_", Type: "string"},
			{Name: "decimals_", Type: "uint8"},
		},
		StateMutability: "nonpayable",
	},

	// ── Read ─────────────────────────────────────────────────────────────────
	{
		Name: "total_assets", Type: "function",
		Outputs:         []ABIParam{{Name: "", Type: "uint64"}},
		StateMutability: "view",
	},
	{
		Name: "total_supply", Type: "function",
		Inputs:          []ABIParam{{Name: "asset", Type: "bytes32"}},
		Outputs:         []ABIParam{{Name: "found", Type: "bool"}, {Name: "supply", Type: "uint64"}},
		StateMutability: "view",
	},
	{
		Name: "name", Type: "function",
		Inputs:          []ABIParam{{Name: "asset", Type: "bytes32"}},
		Outputs:         []ABIParam{{Name: "found", Type: "bool"}, {Name: "name", Type: "string"}},
		StateMutability: "view",
	},
	{
		Name: "symbol", Type: "function",
		Inputs:          []ABIParam{{Name: "asset", Type: "bytes32"}},
		Outputs:         []ABIParam{{Name: "found", Type: "bool"}, {Name: "symbol", Type: "string"}},
		StateMutability: "view",
	},
	{
		Name: "decimals", Type: "function",
		Inputs:          []ABIParam{{Name: "asset", Type: "bytes32"}},
		Outputs:         []ABIParam{{Name: "found", Type: "bool"}, {Name: "decimals", Type: "uint8"}},
		StateMutability: "view",
	},

	// ── Write ────────────────────────────────────────────────────────────────
	{
		Name: "mint", Type: "function",
		Inputs: []ABIParam{
			{Name: "recipient", Type: "address"},
			{Name: "subId", Type: "bytes32"},
			{Name: "amount", Type: "uint64"},
		},
		StateMutability: "nonpayable",
	},
	{
		Name: "burn", Type: "function",
		Inputs: []ABIParam{
			{Name: "subId", Type: "bytes32"},
			{Name: "amount", Type: "uint64"},
		},
		StateMutability: "nonpayable",
	},

	// ── Events ───────────────────────────────────────────────────────────────
	{
		Name: "TotalSupplyEvent", Type: "event",
		Inputs: []ABIParam{
			{Name: "asset", Type: "bytes32", Indexed: true},
			{Name: "supply", Type: "uint64"},
			{Name: "sender", Type: "address"},
		},
	},
	{
		Name: "SetNameEvent", Type: "event",
		Inputs: []ABIParam{
			{Name: "asset", Type: "bytes32", Indexed: true},
			{Name: "name", Type: "string"},
			{Name: "sender", Type: "address"},
		},
	},
}
