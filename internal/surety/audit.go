package surety

import (
	id "flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
	audit "flightsurety/pkg/platform/audit"
)

// subject names the entity an operation acts on.
func subject(op Op) string {
	switch o := op.(type) {
	case AuthorizeCaller:
		return o.Address.String()
	case DeauthorizeCaller:
		return o.Address.String()
	case RegisterAirline:
		return o.Candidate.String()
	case RegisterFlight:
		return id.NewFlightKey(o.Sender, o.Flight, o.Timestamp).String()
	case BuyInsurance:
		return id.NewFlightKey(o.Airline, o.Flight, o.Timestamp).String()
	case ProcessFlightStatus:
		return id.NewFlightKey(o.Airline, o.Flight, o.Timestamp).String()
	case CreditPayout:
		return id.NewFlightKey(o.Airline, o.Flight, o.Timestamp).String()
	}
	return op.envelope().Sender.String()
}

func baseEvent(op Op, action audit.AuditEvent, decision string) audit.Event {
	env := op.envelope()
	return audit.Event{
		Subject:  subject(op),
		Action:   string(action),
		Sender:   env.Sender.String(),
		Caller:   env.Caller.String(),
		Decision: decision,
	}
}

func rejectionEvent(op Op, err error) audit.Event {
	code := dErrors.CodeOf(err)
	action := audit.EventOperationRejected
	if code == dErrors.CodeUnauthorized || code == dErrors.CodeCallerNotAuthorized {
		action = audit.EventUnauthorizedAttempt
	}
	event := baseEvent(op, action, audit.DecisionRejected)
	event.Reason = string(code)
	return event
}

func appliedEvents(op Op, res *Result) []audit.Event {
	event := func(action audit.AuditEvent) audit.Event {
		e := baseEvent(op, action, audit.DecisionApplied)
		e.Height = res.Height
		return e
	}

	switch o := op.(type) {
	case SetOperatingStatus:
		e := event(audit.EventOperatingStatusChanged)
		if o.Mode {
			e.Reason = "operational"
		} else {
			e.Reason = "paused"
		}
		return []audit.Event{e}
	case AuthorizeCaller:
		return []audit.Event{event(audit.EventCallerAuthorized)}
	case DeauthorizeCaller:
		return []audit.Event{event(audit.EventCallerDeauthorized)}
	case RegisterAirline:
		if res.Registration != nil && res.Registration.Registered {
			return []audit.Event{event(audit.EventAirlineRegistered)}
		}
		return []audit.Event{event(audit.EventAirlineVoteCast)}
	case FundAirline:
		e := event(audit.EventAirlineFunded)
		e.Amount = o.Amount.String()
		return []audit.Event{e}
	case RegisterFlight:
		return []audit.Event{event(audit.EventFlightRegistered)}
	case BuyInsurance:
		e := event(audit.EventInsurancePurchased)
		e.Amount = o.Amount.String()
		return []audit.Event{e}
	case ProcessFlightStatus:
		e := event(audit.EventFlightStatusUpdated)
		e.Reason = o.Status.String()
		events := []audit.Event{e}
		if res.Credit != nil {
			c := event(audit.EventPayoutCredited)
			c.Amount = res.Credit.Total.String()
			events = append(events, c)
		}
		return events
	case CreditPayout:
		e := event(audit.EventPayoutCredited)
		if res.Credit != nil {
			e.Amount = res.Credit.Total.String()
		}
		return []audit.Event{e}
	case Withdraw:
		e := event(audit.EventPayoutWithdrawn)
		if res.Withdrawal != nil {
			e.Amount = res.Withdrawal.Amount.String()
		}
		return []audit.Event{e}
	}
	return nil
}
