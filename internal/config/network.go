package config

import "time"

// DefaultRPCURL points at the public mainnet endpoint.
const DefaultRPCURL = "https://api.mainnet-beta.solana.com"

// Transfer defaults in SOL.
const (
	DefaultAmountSOL  = "0.0001"
	DefaultReserveSOL = "0.00002"
)

// Network defines the RPC endpoint and how hard the session may lean on it.
type Network struct {
	RPCURL            string        `yaml:"rpc_url"`
	Commitment        string        `yaml:"commitment"` // processed|confirmed|finalized
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	BreakerFailures   uint32        `yaml:"breaker_failures"`
	ConfirmPoll       time.Duration `yaml:"confirm_poll"`
	ConfirmTimeout    time.Duration `yaml:"confirm_timeout"`
}

// Wallet stores env-backed signing material metadata. The environment variable
// takes precedence; this field is only a fallback.
type Wallet struct {
	PrivateKeyBase58 string `yaml:"private_key_base58,omitempty"`
}
