package solana

import (
	"errors"
	"fmt"
	"os"
	"strings"

	solana "github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
)

// PrivateKeyEnv names the variable holding the sender keypair.
const PrivateKeyEnv = "SOLANA_PRIVATE_KEY_BASE58"

// LoadPrivateKey reads the sender keypair from PrivateKeyEnv (a .env file is
// honored) and falls back to the given base58 string.
func LoadPrivateKey(fallback string) (solana.PrivateKey, error) {
	_ = godotenv.Load() // best-effort
	b58 := strings.TrimSpace(os.Getenv(PrivateKeyEnv))
	if b58 == "" {
		b58 = strings.TrimSpace(fallback)
	}
	if b58 == "" {
		return nil, fmt.Errorf("%s not set", PrivateKeyEnv)
	}
	return ParsePrivateKey(b58)
}

// LoadPrivateKeyFromEnv is LoadPrivateKey without a fallback.
func LoadPrivateKeyFromEnv() (solana.PrivateKey, error) {
	return LoadPrivateKey("")
}

// ParsePrivateKey decodes a base58 64-byte keypair.
func ParsePrivateKey(b58 string) (solana.PrivateKey, error) {
	key, err := solana.PrivateKeyFromBase58(strings.TrimSpace(b58))
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	if len(key) != 64 {
		return nil, fmt.Errorf("decode private key: expected 64 bytes, got %d", len(key))
	}
	return key, nil
}

// ParseDestination validates a base58 recipient address.
func ParseDestination(addr string) (solana.PublicKey, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return solana.PublicKey{}, errors.New("destination address is empty")
	}
	pk, err := solana.PublicKeyFromBase58(addr)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid destination %q: %w", addr, err)
	}
	if pk == (solana.PublicKey{}) {
		return solana.PublicKey{}, fmt.Errorf("invalid destination %q: zero address", addr)
	}
	return pk, nil
}

// NewKeypair generates a fresh sender keypair.
func NewKeypair() solana.PrivateKey {
	return solana.NewWallet().PrivateKey
}
