package domain

import (
	"encoding/hex"
	"strings"

	dErrors "flightsurety/pkg/domain-errors"
)

// AddressLength is the byte length of an account address.
const AddressLength = 20

// Address identifies an account (owner, airline, passenger, or submitting caller).
// Addresses are stored in canonical form: lowercase hex with a 0x prefix.
type Address string

// ZeroAddress is the unset address.
const ZeroAddress Address = ""

// ParseAddress validates and canonicalizes an address at a trust boundary.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ZeroAddress, dErrors.New(dErrors.CodeValidation, "address is required")
	}
	body, ok := strings.CutPrefix(strings.ToLower(s), "0x")
	if !ok {
		return ZeroAddress, dErrors.New(dErrors.CodeValidation, "address must start with 0x")
	}
	if len(body) != AddressLength*2 {
		return ZeroAddress, dErrors.Newf(dErrors.CodeValidation, "address must be %d hex characters", AddressLength*2)
	}
	if _, err := hex.DecodeString(body); err != nil {
		return ZeroAddress, dErrors.New(dErrors.CodeValidation, "address must be hex encoded")
	}
	return Address("0x" + body), nil
}

// MustAddress parses an address and panics on failure. Intended for tests and
// compile-time constants only.
func MustAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Address) String() string {
	return string(a)
}

func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// Bytes returns the 20 raw address bytes. Unparsed or zero addresses yield zeros.
func (a Address) Bytes() []byte {
	out := make([]byte, AddressLength)
	body, _ := strings.CutPrefix(string(a), "0x")
	if raw, err := hex.DecodeString(body); err == nil && len(raw) == AddressLength {
		copy(out, raw)
	}
	return out
}
