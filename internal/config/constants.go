package config

import "time"

// Gas limits applied when the caller does not override them.
const (
	DefaultGasLimit       = uint64(400_000)   // every mint/burn/read call
	DefaultDeployGasLimit = uint64(3_000_000) // EstimateGas fallback for deployments
)

// DeterministicDeployer is the keyless CREATE2 proxy present on most dev
// chains (anvil, hardhat) and public networks. Calldata is salt ‖ initcode.
// Constructors run with the proxy as msg.sender, not the wallet; contracts
// that capture an owner at construction need FactoryNone.
const DeterministicDeployer = "0x4e59b44847b379578588920cA78FbF26c0B4956C"

// FactoryNone as factory_address forces plain CREATE deployments.
const FactoryNone = "none"

// Timeouts used across cmd and the harness.
const (
	NodeSelectTimeout = 10 * time.Second // node benchmark / selection
	TxConfirmTimeout  = 2 * time.Minute  // mint / burn confirmation wait
	TxDeployTimeout   = 5 * time.Minute  // contract deployment confirmation wait
)
