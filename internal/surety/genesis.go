package surety

import (
	"fmt"

	"github.com/shopspring/decimal"

	insurancemodels "flightsurety/internal/insurance/models"
	id "flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
	platformstrings "flightsurety/pkg/platform/strings"
)

// Genesis is the immutable configuration the registry starts from. Every
// replica must be constructed from the same Genesis to replay the same log.
type Genesis struct {
	Owner              id.Address                 `json:"owner"`
	FirstAirline       id.Address                 `json:"first_airline"`
	FirstAirlineName   string                     `json:"first_airline_name"`
	MinFunds           decimal.Decimal            `json:"min_funds"`
	MaxPolicy          decimal.Decimal            `json:"max_policy"`
	ConsensusThreshold int                        `json:"consensus_threshold"`
	PayoutMultiplier   insurancemodels.Multiplier `json:"payout_multiplier"`
	AuthorizedCallers  []id.Address               `json:"authorized_callers"`
	// Oracles may report flight status alongside the owner.
	Oracles            []id.Address               `json:"oracles"`
}

// DefaultGenesis returns the standard constants: 10 ether stake, 1 ether cap,
// consensus from the fourth airline, 3/2 payout.
func DefaultGenesis(owner, firstAirline id.Address) Genesis {
	return Genesis{
		Owner:              owner,
		FirstAirline:       firstAirline,
		FirstAirlineName:   "Genesis Airline",
		MinFunds:           id.Ether("10"),
		MaxPolicy:          id.Ether("1"),
		ConsensusThreshold: 4,
		PayoutMultiplier:   insurancemodels.DelayMultiplier,
	}
}

func (g Genesis) Validate() error {
	if g.Owner.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "genesis owner is required")
	}
	if g.FirstAirline.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "genesis first airline is required")
	}
	if !g.MinFunds.IsPositive() {
		return dErrors.New(dErrors.CodeValidation, "genesis minimum funds must be positive")
	}
	if !g.MaxPolicy.IsPositive() {
		return dErrors.New(dErrors.CodeValidation, "genesis maximum policy must be positive")
	}
	if g.ConsensusThreshold < 1 {
		return dErrors.New(dErrors.CodeValidation, "genesis consensus threshold must be at least 1")
	}
	if g.PayoutMultiplier.Den <= 0 || g.PayoutMultiplier.Num < 0 {
		return dErrors.New(dErrors.CodeValidation, "genesis payout multiplier must have a positive denominator")
	}
	for _, c := range g.AuthorizedCallers {
		if c.IsZero() {
			return dErrors.New(dErrors.CodeValidation, "genesis authorized callers must not be empty")
		}
	}
	for _, o := range g.Oracles {
		if o.IsZero() {
			return dErrors.New(dErrors.CodeValidation, "genesis oracles must not be empty")
		}
	}
	return nil
}

// GenesisParams is the textual form of Genesis read from configuration and
// scenario files. Amounts accept wei or "<n> ether"; omitted fields take the
// DefaultGenesis values.
type GenesisParams struct {
	Owner              string   `yaml:"owner" mapstructure:"owner"`
	FirstAirline       string   `yaml:"first_airline" mapstructure:"first_airline"`
	FirstAirlineName   string   `yaml:"first_airline_name" mapstructure:"first_airline_name"`
	MinFunds           string   `yaml:"min_funds" mapstructure:"min_funds"`
	MaxPolicy          string   `yaml:"max_policy" mapstructure:"max_policy"`
	ConsensusThreshold int      `yaml:"consensus_threshold" mapstructure:"consensus_threshold"`
	PayoutNum          int64    `yaml:"payout_num" mapstructure:"payout_num"`
	PayoutDen          int64    `yaml:"payout_den" mapstructure:"payout_den"`
	AuthorizedCallers  []string `yaml:"authorized_callers" mapstructure:"authorized_callers"`
	Oracles            []string `yaml:"oracles" mapstructure:"oracles"`
}

func (p GenesisParams) Build() (Genesis, error) {
	owner, err := id.ParseAddress(p.Owner)
	if err != nil {
		return Genesis{}, fmt.Errorf("genesis owner: %w", err)
	}
	first, err := id.ParseAddress(p.FirstAirline)
	if err != nil {
		return Genesis{}, fmt.Errorf("genesis first airline: %w", err)
	}
	out := DefaultGenesis(owner, first)
	if p.FirstAirlineName != "" {
		out.FirstAirlineName = p.FirstAirlineName
	}
	if p.MinFunds != "" {
		if out.MinFunds, err = id.ParseAmount(p.MinFunds); err != nil {
			return Genesis{}, fmt.Errorf("genesis min funds: %w", err)
		}
	}
	if p.MaxPolicy != "" {
		if out.MaxPolicy, err = id.ParseAmount(p.MaxPolicy); err != nil {
			return Genesis{}, fmt.Errorf("genesis max policy: %w", err)
		}
	}
	if p.ConsensusThreshold != 0 {
		out.ConsensusThreshold = p.ConsensusThreshold
	}
	if p.PayoutDen != 0 {
		out.PayoutMultiplier = insurancemodels.Multiplier{Num: p.PayoutNum, Den: p.PayoutDen}
	}
	if out.AuthorizedCallers, err = parseAddresses("genesis caller", p.AuthorizedCallers); err != nil {
		return Genesis{}, err
	}
	if out.Oracles, err = parseAddresses("genesis oracle", p.Oracles); err != nil {
		return Genesis{}, err
	}
	return out, out.Validate()
}

func parseAddresses(field string, values []string) ([]id.Address, error) {
	var out []id.Address
	for _, v := range platformstrings.DedupeAndTrimLower(values) {
		addr, err := id.ParseAddress(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		out = append(out, addr)
	}
	return out, nil
}
