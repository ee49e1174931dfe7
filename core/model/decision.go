package model

import "time"

// DecisionKind is the dispatch verdict for a shipment.
type DecisionKind int

const (
	DecideDispatch DecisionKind = iota
	DecideDelay
	DecideReschedule
)

func (d DecisionKind) String() string {
	switch d {
	case DecideDispatch:
		return "DISPATCH"
	case DecideDelay:
		return "DELAY"
	case DecideReschedule:
		return "RESCHEDULE"
	default:
		return "unknown"
	}
}

// ParseDecisionKind converts a textual decision into a DecisionKind.
func ParseDecisionKind(s string) (DecisionKind, bool) {
	switch s {
	case "DISPATCH":
		return DecideDispatch, true
	case "DELAY":
		return DecideDelay, true
	case "RESCHEDULE":
		return DecideReschedule, true
	default:
		return 0, false
	}
}

// DecisionSource records who issued the decision.
type DecisionSource int

const (
	SourceAuto DecisionSource = iota
	SourceHuman
)

func (s DecisionSource) String() string {
	switch s {
	case SourceAuto:
		return "AI"
	case SourceHuman:
		return "HUMAN"
	default:
		return "unknown"
	}
}

// DecisionState is the gate state machine position for a shipment.
type DecisionState int

const (
	StatePending DecisionState = iota
	StateDispatch
	StateDelay
	StateReschedule
	StateOverridden
)

func (s DecisionState) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateDispatch:
		return "DISPATCH"
	case StateDelay:
		return "DELAY"
	case StateReschedule:
		return "RESCHEDULE"
	case StateOverridden:
		return "OVERRIDDEN"
	default:
		return "unknown"
	}
}

// Decision is the current dispatch decision for a shipment. Locked decisions
// reject automatic re-evaluation; only a human override mutates a decision
// after initial computation.
type Decision struct {
	ShipmentID string
	Kind       DecisionKind
	Source     DecisionSource
	State      DecisionState
	RiskScore  int
	Bucket     RiskBucket
	Reasons    []string
	Locked     bool
	// Version supports optimistic concurrency on updates; racing writers
	// are serialized by the store.
	Version   int64
	DecidedAt time.Time
}

// Authority is the override permission level of an actor.
type Authority int

const (
	AuthorityOperator Authority = iota
	AuthoritySupervisor
	AuthorityManager
)

func (a Authority) String() string {
	switch a {
	case AuthorityOperator:
		return "Operator"
	case AuthoritySupervisor:
		return "Supervisor"
	case AuthorityManager:
		return "Manager"
	default:
		return "unknown"
	}
}

// ParseAuthority converts a textual authority level.
func ParseAuthority(s string) (Authority, bool) {
	switch s {
	case "Operator", "OPERATOR", "operator":
		return AuthorityOperator, true
	case "Supervisor", "SUPERVISOR", "supervisor":
		return AuthoritySupervisor, true
	case "Manager", "MANAGER", "manager":
		return AuthorityManager, true
	default:
		return 0, false
	}
}

// Override is an immutable record of a human decision superseding an
// automatic one. Overrides are append-only; a later override supersedes an
// earlier one for the same shipment but both remain in the log.
type Override struct {
	ID         string
	ShipmentID string
	Prior      DecisionKind
	New        DecisionKind
	Actor      string
	Authority  Authority
	Reason     string
	Timestamp  time.Time
}
