// Package eth implements the EIP-4361 ("Sign-In with Ethereum") challenge
// message format and EIP-191 personal-sign verification on secp256k1.
package eth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrInvalidMessage is returned when text does not follow the EIP-4361
	// grammar
	ErrInvalidMessage = errors.New("invalid siwe message")

	// ErrInvalidSignature is returned when a signature is malformed or does
	// not recover to the message address
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrOutsideValidityWindow is returned when the verification time falls
	// outside [issuedAt, expirationTime]
	ErrOutsideValidityWindow = errors.New("message outside validity window")
)

const headerSuffix = " wants you to sign in with your Ethereum account:"

// Message is a structured EIP-4361 challenge statement. IssuedAt and
// ExpirationTime are optional at the grammar level; policy checks on their
// presence belong to the caller.
type Message struct {
	Domain         string
	Address        common.Address
	Statement      string
	URI            string
	Version        string
	ChainID        int
	Nonce          string
	IssuedAt       *time.Time
	ExpirationTime *time.Time

	// raw preserves the exact text that was parsed; signatures are computed
	// over these bytes, never over a re-serialization.
	raw string
}

// ParseMessage parses the textual EIP-4361 representation of a challenge.
func ParseMessage(text string) (*Message, error) {
	lines := strings.Split(text, "\n")
	if len(lines) < 3 {
		return nil, fmt.Errorf("%w: too few lines", ErrInvalidMessage)
	}

	domain, ok := strings.CutSuffix(lines[0], headerSuffix)
	if !ok || domain == "" {
		return nil, fmt.Errorf("%w: bad header line", ErrInvalidMessage)
	}

	if !common.IsHexAddress(lines[1]) {
		return nil, fmt.Errorf("%w: bad address %q", ErrInvalidMessage, lines[1])
	}

	msg := &Message{
		Domain:  domain,
		Address: common.HexToAddress(lines[1]),
		raw:     text,
	}

	if lines[2] != "" {
		return nil, fmt.Errorf("%w: missing blank line after address", ErrInvalidMessage)
	}

	// Optional statement block sits between two blank lines, before the
	// first "Key: Value" field.
	i := 3
	var statement []string
	for ; i < len(lines); i++ {
		if lines[i] == "" || strings.Contains(lines[i], ": ") {
			break
		}
		statement = append(statement, lines[i])
	}
	msg.Statement = strings.Join(statement, "\n")
	for i < len(lines) && lines[i] == "" {
		i++
	}

	seen := make(map[string]bool)
	for ; i < len(lines); i++ {
		if lines[i] == "" {
			continue
		}
		key, value, found := strings.Cut(lines[i], ": ")
		if !found {
			return nil, fmt.Errorf("%w: unparseable field line %q", ErrInvalidMessage, lines[i])
		}
		if seen[key] {
			return nil, fmt.Errorf("%w: duplicate field %q", ErrInvalidMessage, key)
		}
		seen[key] = true

		switch key {
		case "URI":
			msg.URI = value
		case "Version":
			msg.Version = value
		case "Chain ID":
			chainID, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("%w: bad chain id %q", ErrInvalidMessage, value)
			}
			msg.ChainID = chainID
		case "Nonce":
			msg.Nonce = value
		case "Issued At":
			ts, err := time.Parse(time.RFC3339, value)
			if err != nil {
				return nil, fmt.Errorf("%w: bad issued-at %q", ErrInvalidMessage, value)
			}
			msg.IssuedAt = &ts
		case "Expiration Time":
			ts, err := time.Parse(time.RFC3339, value)
			if err != nil {
				return nil, fmt.Errorf("%w: bad expiration-time %q", ErrInvalidMessage, value)
			}
			msg.ExpirationTime = &ts
		default:
			// Not Before, Request ID and Resources are accepted but unused.
		}
	}

	if msg.URI == "" || msg.Version == "" || msg.ChainID == 0 || msg.Nonce == "" {
		return nil, fmt.Errorf("%w: missing required field", ErrInvalidMessage)
	}

	return msg, nil
}

// Text returns the exact bytes a wallet signs. For parsed messages this is
// the original input; for constructed messages it is the canonical
// serialization.
func (m *Message) Text() string {
	if m.raw != "" {
		return m.raw
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s%s\n", m.Domain, headerSuffix)
	fmt.Fprintf(&b, "%s\n", m.Address.Hex())
	b.WriteString("\n")
	if m.Statement != "" {
		fmt.Fprintf(&b, "%s\n", m.Statement)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "URI: %s\n", m.URI)
	fmt.Fprintf(&b, "Version: %s\n", m.Version)
	fmt.Fprintf(&b, "Chain ID: %d\n", m.ChainID)
	fmt.Fprintf(&b, "Nonce: %s", m.Nonce)
	if m.IssuedAt != nil {
		fmt.Fprintf(&b, "\nIssued At: %s", m.IssuedAt.Format(time.RFC3339))
	}
	if m.ExpirationTime != nil {
		fmt.Fprintf(&b, "\nExpiration Time: %s", m.ExpirationTime.Format(time.RFC3339))
	}
	return b.String()
}

// ValidAt reports whether now falls within [IssuedAt, ExpirationTime].
// Absent bounds do not constrain.
func (m *Message) ValidAt(now time.Time) error {
	if m.IssuedAt != nil && now.Before(*m.IssuedAt) {
		return fmt.Errorf("%w: not yet valid", ErrOutsideValidityWindow)
	}
	if m.ExpirationTime != nil && now.After(*m.ExpirationTime) {
		return fmt.Errorf("%w: expired", ErrOutsideValidityWindow)
	}
	return nil
}
