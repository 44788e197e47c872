package eth

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

const signatureLength = 65

// VerifySignature checks that signature (0x-prefixed hex, 65 bytes) is an
// EIP-191 personal-sign signature over the exact message text, produced by
// the private key of the address embedded in the message.
func (m *Message) VerifySignature(signature string) error {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return fmt.Errorf("%w: not valid hex: %v", ErrInvalidSignature, err)
	}
	if len(sig) != signatureLength {
		return fmt.Errorf("%w: signature must be %d bytes, got %d", ErrInvalidSignature, signatureLength, len(sig))
	}

	// Wallets emit the recovery id as 27/28; secp256k1 recovery wants 0/1.
	recovery := make([]byte, signatureLength)
	copy(recovery, sig)
	if recovery[signatureLength-1] >= 27 {
		recovery[signatureLength-1] -= 27
	}

	hash := accounts.TextHash([]byte(m.Text()))
	pub, err := crypto.SigToPub(hash, recovery)
	if err != nil {
		return fmt.Errorf("%w: recovery failed: %v", ErrInvalidSignature, err)
	}

	if crypto.PubkeyToAddress(*pub) != m.Address {
		return fmt.Errorf("%w: recovered address does not match", ErrInvalidSignature)
	}

	return nil
}
