package domain

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"

	dErrors "flightsurety/pkg/domain-errors"
)

// FlightKey is the Keccak-256 digest identifying a flight. It is derived from the
// packed encoding of (airline address, flight name, departure timestamp as uint256)
// so keys match those computed by on-chain deployments of the registry.
type FlightKey [32]byte

// NewFlightKey derives the key for a flight.
func NewFlightKey(airline Address, name string, timestamp int64) FlightKey {
	var ts [32]byte
	binary.BigEndian.PutUint64(ts[24:], uint64(timestamp))

	h := sha3.NewLegacyKeccak256()
	h.Write(airline.Bytes())
	h.Write([]byte(name))
	h.Write(ts[:])

	var key FlightKey
	copy(key[:], h.Sum(nil))
	return key
}

// ParseFlightKey parses a 0x-prefixed hex flight key.
func ParseFlightKey(s string) (FlightKey, error) {
	var key FlightKey
	body, ok := strings.CutPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	if !ok || len(body) != len(key)*2 {
		return key, dErrors.New(dErrors.CodeValidation, "flight key must be 0x followed by 64 hex characters")
	}
	if _, err := hex.Decode(key[:], []byte(body)); err != nil {
		return key, dErrors.New(dErrors.CodeValidation, "flight key must be hex encoded")
	}
	return key, nil
}

func (k FlightKey) String() string {
	return "0x" + hex.EncodeToString(k[:])
}

func (k FlightKey) IsZero() bool {
	return k == FlightKey{}
}

func (k FlightKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *FlightKey) UnmarshalText(text []byte) error {
	parsed, err := ParseFlightKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
