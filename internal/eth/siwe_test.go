package eth

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessage(t *testing.T, address string) *Message {
	t.Helper()

	issued := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	expires := issued.Add(24 * time.Hour)
	return &Message{
		Domain:         "localhost",
		Address:        common.HexToAddress(address),
		Statement:      "Welcome to TruthMemes",
		URI:            "http://localhost/auth",
		Version:        "1",
		ChainID:        1,
		Nonce:          "abcDEF12345678901",
		IssuedAt:       &issued,
		ExpirationTime: &expires,
	}
}

func TestParseMessageRoundTrip(t *testing.T) {
	original := testMessage(t, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	parsed, err := ParseMessage(original.Text())
	require.NoError(t, err)

	assert.Equal(t, original.Domain, parsed.Domain)
	assert.Equal(t, original.Address, parsed.Address)
	assert.Equal(t, original.Statement, parsed.Statement)
	assert.Equal(t, original.URI, parsed.URI)
	assert.Equal(t, original.Version, parsed.Version)
	assert.Equal(t, original.ChainID, parsed.ChainID)
	assert.Equal(t, original.Nonce, parsed.Nonce)
	require.NotNil(t, parsed.IssuedAt)
	require.NotNil(t, parsed.ExpirationTime)
	assert.True(t, original.IssuedAt.Equal(*parsed.IssuedAt))
	assert.True(t, original.ExpirationTime.Equal(*parsed.ExpirationTime))

	// The parsed message keeps the original bytes for signing.
	assert.Equal(t, original.Text(), parsed.Text())
}

func TestParseMessageWithoutTimestamps(t *testing.T) {
	msg := testMessage(t, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	msg.IssuedAt = nil
	msg.ExpirationTime = nil

	parsed, err := ParseMessage(msg.Text())
	require.NoError(t, err)
	assert.Nil(t, parsed.IssuedAt)
	assert.Nil(t, parsed.ExpirationTime)
}

func TestParseMessageRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"garbage":        "this is not a siwe message at all",
		"bad header":     "localhost invites you in:\n0x70997970C51812dc3A010C7d01b50e0d17dc79C8\n\nURI: x",
		"bad address":    "localhost wants you to sign in with your Ethereum account:\nnot-an-address\n\nURI: http://localhost\nVersion: 1\nChain ID: 1\nNonce: abc12345",
		"missing nonce":  "localhost wants you to sign in with your Ethereum account:\n0x70997970C51812dc3A010C7d01b50e0d17dc79C8\n\nURI: http://localhost\nVersion: 1\nChain ID: 1",
		"bad chain id":   "localhost wants you to sign in with your Ethereum account:\n0x70997970C51812dc3A010C7d01b50e0d17dc79C8\n\nURI: http://localhost\nVersion: 1\nChain ID: mainnet\nNonce: abc12345",
		"bad issued at":  "localhost wants you to sign in with your Ethereum account:\n0x70997970C51812dc3A010C7d01b50e0d17dc79C8\n\nURI: http://localhost\nVersion: 1\nChain ID: 1\nNonce: abc12345\nIssued At: yesterday",
		"duplicate field": "localhost wants you to sign in with your Ethereum account:\n0x70997970C51812dc3A010C7d01b50e0d17dc79C8\n\nURI: http://localhost\nURI: http://elsewhere\nVersion: 1\nChain ID: 1\nNonce: abc12345",
	}

	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseMessage(text)
			assert.ErrorIs(t, err, ErrInvalidMessage)
		})
	}
}

func TestValidAt(t *testing.T) {
	msg := testMessage(t, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")

	assert.NoError(t, msg.ValidAt(msg.IssuedAt.Add(time.Hour)))
	assert.ErrorIs(t, msg.ValidAt(msg.IssuedAt.Add(-time.Hour)), ErrOutsideValidityWindow)
	assert.ErrorIs(t, msg.ValidAt(msg.ExpirationTime.Add(time.Second)), ErrOutsideValidityWindow)
}

func TestVerifySignature(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	msg := testMessage(t, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	msg.Address = crypto.PubkeyToAddress(key.PublicKey)

	hash := accounts.TextHash([]byte(msg.Text()))
	sig, err := crypto.Sign(hash, key)
	require.NoError(t, err)

	t.Run("raw recovery id", func(t *testing.T) {
		assert.NoError(t, msg.VerifySignature(hexutil.Encode(sig)))
	})

	t.Run("wallet recovery id", func(t *testing.T) {
		walletSig := make([]byte, len(sig))
		copy(walletSig, sig)
		walletSig[64] += 27
		assert.NoError(t, msg.VerifySignature(hexutil.Encode(walletSig)))
	})

	t.Run("wrong signer", func(t *testing.T) {
		other := testMessage(t, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
		err := other.VerifySignature(hexutil.Encode(sig))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("tampered message", func(t *testing.T) {
		tampered := *msg
		tampered.raw = ""
		tampered.Nonce = "zzzzzzzz12345678"
		err := tampered.VerifySignature(hexutil.Encode(sig))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("not hex", func(t *testing.T) {
		assert.ErrorIs(t, msg.VerifySignature("definitely-not-hex"), ErrInvalidSignature)
	})

	t.Run("wrong length", func(t *testing.T) {
		assert.ErrorIs(t, msg.VerifySignature("0xdeadbeef"), ErrInvalidSignature)
	})
}
