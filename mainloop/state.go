// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

// SourceState is the per-cycle state of a source.
//
//	StateNone (0) → StatePrepare (1)           [attach]
//	StatePrepare (1) → StateCheck (2)          [prepare hook absent or true]
//	StateCheck (2) → StateActive (3)           [check hook absent or true]
//	StateActive (3) → StateCleanup (4)         [callback returned true]
//	StateActive (3) → StateNone (0)            [callback returned false]
//	StateCleanup (4) → StatePrepare (1)        [cleanup phase]
//	StateNone (0) → (detached)                 [cleanup phase]
type SourceState uint8

const (
	// StateNone indicates the source is detached, or finished.
	StateNone SourceState = iota
	// StatePrepare indicates the source is waiting to be prepared.
	StatePrepare
	// StateCheck indicates the source is waiting to be checked.
	StateCheck
	// StateActive indicates the source is ready to be dispatched.
	StateActive
	// StateCleanup indicates the source was dispatched, and will continue.
	StateCleanup
)

// String returns a human-readable representation of the state.
func (s SourceState) String() string {
	switch s {
	case StateNone:
		return `None`
	case StatePrepare:
		return `Prepare`
	case StateCheck:
		return `Check`
	case StateActive:
		return `Active`
	case StateCleanup:
		return `Cleanup`
	default:
		return `Unknown`
	}
}

// Phase is the phase a loop will run on its next step.
type Phase uint8

const (
	// PhasePrepare calls the prepare hook of each source in StatePrepare.
	PhasePrepare Phase = iota
	// PhaseCheck calls the check hook of each source in StateCheck.
	PhaseCheck
	// PhaseDispatch calls the callback of each source in StateActive.
	PhaseDispatch
	// PhaseCleanup calls the cleanup hook of every source of the cycle, and
	// detaches finished sources.
	PhaseCleanup
)

// String returns a human-readable representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhasePrepare:
		return `Prepare`
	case PhaseCheck:
		return `Check`
	case PhaseDispatch:
		return `Dispatch`
	case PhaseCleanup:
		return `Cleanup`
	default:
		return `Unknown`
	}
}

func (p Phase) next() Phase {
	return (p + 1) % 4
}
