package config

// Config holds all src20kit configuration.
type Config struct {
	NodeURLs       []string `json:"node_urls"`
	NodeAlgorithm  string   `json:"node_algorithm"` // "failover" | "fastest"
	SecretKey      string   `json:"secret_key,omitempty"`
	KeyRef         string   `json:"key_ref,omitempty"` // keyring reference, used when SecretKey is empty
	ArtifactPath   string   `json:"artifact_path"`
	GasLimit       uint64   `json:"gas_limit"`
	DeployGasLimit uint64   `json:"deploy_gas_limit"`
	MaxFeeWei      string   `json:"max_fee_wei,omitempty"` // empty = uncapped
	FactoryAddress string   `json:"factory_address"`
	LogLevel       string   `json:"log_level"`

	// internal: config dir path used for Save()
	configDir string
}
