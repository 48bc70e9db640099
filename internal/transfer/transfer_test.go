package transfer

import (
	"errors"
	"fmt"
	"testing"

	solana "github.com/gagliardetto/solana-go"
)

func TestRequestFrom(t *testing.T) {
	wallet := solana.NewWallet()
	req := Request{Payer: wallet.PrivateKey, To: solana.NewWallet().PublicKey(), Lamports: 1}
	if !req.From().Equals(wallet.PublicKey()) {
		t.Fatalf("expected payer %s, got %s", wallet.PublicKey(), req.From())
	}
}

func TestIsExpired(t *testing.T) {
	wrapped := fmt.Errorf("send: %w", ErrBlockhashExpired)
	if !IsExpired(wrapped) {
		t.Fatalf("expected wrapped sentinel to be detected")
	}
	if IsExpired(errors.New("insufficient funds")) {
		t.Fatalf("unrelated error classified as expiry")
	}
	if IsExpired(nil) {
		t.Fatalf("nil classified as expiry")
	}
}
