// Package scenario runs the registry as a deterministic simulator over YAML
// scenario files: a genesis block and an ordered list of operations, each with
// an expected outcome.
package scenario

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	flightmodels "flightsurety/internal/flight/models"
	"flightsurety/internal/surety"
	id "flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
)

// ExpectOK marks a step that must be applied.
const ExpectOK = "ok"

type Scenario struct {
	Name    string  `yaml:"name"`
	Genesis Genesis `yaml:"genesis"`
	Steps   []Step  `yaml:"steps"`
}

// Genesis is the YAML genesis block; omitted fields take the defaults.
type Genesis = surety.GenesisParams

// Step is one operation. Args holds the kind-specific fields; Expect is "ok"
// or an error code such as "not_funded".
type Step struct {
	Name   string    `yaml:"name"`
	Op     string    `yaml:"op"`
	Caller string    `yaml:"caller"`
	Sender string    `yaml:"sender"`
	Args   yaml.Node `yaml:"args"`
	Expect string    `yaml:"expect"`
}

type StepResult struct {
	Name   string
	Kind   string
	Expect string
	Got    string
	Height uint64
	Passed bool
}

type Report struct {
	Scenario string
	Steps    []StepResult
	Height   uint64
}

func (r *Report) Failed() int {
	n := 0
	for _, s := range r.Steps {
		if !s.Passed {
			n++
		}
	}
	return n
}

func Load(r io.Reader) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	return &sc, nil
}

func LoadFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Run builds a fresh engine from the scenario genesis and applies every step.
// A step whose outcome differs from its expectation is reported, not fatal.
func Run(ctx context.Context, sc *Scenario, opts ...surety.Option) (*Report, error) {
	genesis, err := sc.Genesis.Build()
	if err != nil {
		return nil, err
	}
	engine, err := surety.New(genesis, opts...)
	if err != nil {
		return nil, err
	}

	report := &Report{Scenario: sc.Name}
	for i, step := range sc.Steps {
		op, err := step.build()
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Name, err)
		}
		expect := step.Expect
		if expect == "" {
			expect = ExpectOK
		}
		got := ExpectOK
		res, err := engine.Apply(ctx, op)
		if err != nil {
			got = string(dErrors.CodeOf(err))
		}
		result := StepResult{Name: step.Name, Kind: step.Op, Expect: expect, Got: got, Passed: got == expect}
		if res != nil {
			result.Height = res.Height
		}
		report.Steps = append(report.Steps, result)
	}
	report.Height = engine.Height()
	return report, nil
}

type modeArgs struct {
	Mode bool `yaml:"mode"`
}

type amountArgs struct {
	Amount string `yaml:"amount"`
}

type addressArgs struct {
	Address string `yaml:"address"`
}

type airlineArgs struct {
	Candidate string `yaml:"candidate"`
	Name      string `yaml:"name"`
}

type flightArgs struct {
	Airline   string                  `yaml:"airline"`
	Flight    string                  `yaml:"flight"`
	Timestamp int64                   `yaml:"timestamp"`
	Amount    string                  `yaml:"amount"`
	Status    flightmodels.StatusCode `yaml:"status"`
	At        int64                   `yaml:"at"`
	Num       int64                   `yaml:"num"`
	Den       int64                   `yaml:"den"`
}

func (s Step) build() (surety.Op, error) {
	caller, err := id.ParseAddress(s.Caller)
	if err != nil {
		return nil, fmt.Errorf("caller: %w", err)
	}
	sender, err := id.ParseAddress(s.Sender)
	if err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}
	env := surety.Envelope{Caller: caller, Sender: sender}

	switch surety.Kind(s.Op) {
	case surety.KindSetOperatingStatus:
		var a modeArgs
		if err := s.decode(&a); err != nil {
			return nil, err
		}
		return surety.SetOperatingStatus{Envelope: env, Mode: a.Mode}, nil

	case surety.KindAuthorizeCaller, surety.KindDeauthorizeCaller:
		var a addressArgs
		if err := s.decode(&a); err != nil {
			return nil, err
		}
		addr, err := id.ParseAddress(a.Address)
		if err != nil {
			return nil, err
		}
		if surety.Kind(s.Op) == surety.KindAuthorizeCaller {
			return surety.AuthorizeCaller{Envelope: env, Address: addr}, nil
		}
		return surety.DeauthorizeCaller{Envelope: env, Address: addr}, nil

	case surety.KindRegisterAirline:
		var a airlineArgs
		if err := s.decode(&a); err != nil {
			return nil, err
		}
		candidate, err := id.ParseAddress(a.Candidate)
		if err != nil {
			return nil, err
		}
		return surety.RegisterAirline{Envelope: env, Candidate: candidate, Name: a.Name}, nil

	case surety.KindFundAirline:
		var a amountArgs
		if err := s.decode(&a); err != nil {
			return nil, err
		}
		amount, err := id.ParseAmount(a.Amount)
		if err != nil {
			return nil, err
		}
		return surety.FundAirline{Envelope: env, Amount: amount}, nil

	case surety.KindWithdraw:
		return surety.Withdraw{Envelope: env}, nil
	}

	var a flightArgs
	if err := s.decode(&a); err != nil {
		return nil, err
	}
	if surety.Kind(s.Op) == surety.KindRegisterFlight {
		return surety.RegisterFlight{Envelope: env, Flight: a.Flight, Timestamp: a.Timestamp}, nil
	}
	airline, err := id.ParseAddress(a.Airline)
	if err != nil {
		return nil, fmt.Errorf("airline: %w", err)
	}
	switch surety.Kind(s.Op) {
	case surety.KindBuyInsurance:
		amount, err := id.ParseAmount(a.Amount)
		if err != nil {
			return nil, err
		}
		return surety.BuyInsurance{Envelope: env, Airline: airline, Flight: a.Flight, Timestamp: a.Timestamp, Amount: amount}, nil
	case surety.KindProcessFlightStatus:
		// Scenarios are replayable, so the report time defaults to the departure.
		at := a.At
		if at == 0 {
			at = a.Timestamp
		}
		return surety.ProcessFlightStatus{Envelope: env, Airline: airline, Flight: a.Flight, Timestamp: a.Timestamp, Status: a.Status, ReportedAt: at}, nil
	case surety.KindCreditPayout:
		return surety.CreditPayout{Envelope: env, Airline: airline, Flight: a.Flight, Timestamp: a.Timestamp, Num: a.Num, Den: a.Den}, nil
	}
	return nil, fmt.Errorf("unknown operation %q", s.Op)
}

func (s Step) decode(out any) error {
	if s.Args.Kind == 0 {
		return nil
	}
	if err := s.Args.Decode(out); err != nil {
		return fmt.Errorf("args for %s: %w", s.Op, err)
	}
	return nil
}
