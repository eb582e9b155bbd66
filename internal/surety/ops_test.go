package surety

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	flightmodels "flightsurety/internal/flight/models"
	dErrors "flightsurety/pkg/domain-errors"
)

func TestDecodeOp(t *testing.T) {
	t.Run("unknown kind", func(t *testing.T) {
		_, err := DecodeOp("transfer_ownership", []byte(`{}`))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("malformed payload", func(t *testing.T) {
		_, err := DecodeOp(string(KindFundAirline), []byte(`{"amount":`))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("status report keeps the stamped time", func(t *testing.T) {
		in := ProcessFlightStatus{Envelope: env(owner), Airline: airline(1), Flight: flightName, Timestamp: departure, Status: flightmodels.StatusLateAirline, ReportedAt: 77}
		payload, err := encodeOp(in)
		require.NoError(t, err)

		out, err := DecodeOp(string(in.Kind()), payload)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})
}

func TestGenesisValidate(t *testing.T) {
	valid := DefaultGenesis(owner, airline(1))
	require.NoError(t, valid.Validate())

	cases := map[string]func(g *Genesis){
		"missing owner":         func(g *Genesis) { g.Owner = "" },
		"missing first airline": func(g *Genesis) { g.FirstAirline = "" },
		"zero stake":            func(g *Genesis) { g.MinFunds = g.MinFunds.Sub(g.MinFunds) },
		"zero cap":              func(g *Genesis) { g.MaxPolicy = g.MaxPolicy.Sub(g.MaxPolicy) },
		"zero denominator":      func(g *Genesis) { g.PayoutMultiplier.Den = 0 },
		"empty caller":          func(g *Genesis) { g.AuthorizedCallers = append(g.AuthorizedCallers, "") },
		"empty oracle":          func(g *Genesis) { g.Oracles = append(g.Oracles, "") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			g := valid
			g.AuthorizedCallers = nil
			mutate(&g)
			assert.True(t, dErrors.HasCode(g.Validate(), dErrors.CodeValidation))
		})
	}
}
