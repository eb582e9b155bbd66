package testutil

import (
	"fmt"

	id "flightsurety/pkg/domain"
)

// Address returns a deterministic canonical address whose low bytes encode n.
func Address(n uint64) id.Address {
	return id.Address(fmt.Sprintf("0x%040x", n))
}
