package state

import "slices"

// entryStates can be reached from anywhere: they start a flow when a listing is opened.
var entryStates = []State{
	StateCategorize,
	StateBuyerAddQueue,
	StateBuyerStatus,
	StateFAQDone,
}

// validTransitions lists the additional moves that continue a flow.
var validTransitions = map[State][]State{
	StateCategorize: {StateFAQSetup},
	StateFAQSetup:   {StateFAQSetup},
	StateFAQDone:    {StateFAQSetup},
}

// IsTransitionAllowed reports whether an ordinary Set may move from one state to another.
// StateAcceptPrice is only entered through Force.
func IsTransitionAllowed(from, to State) bool {
	if to == StateNone {
		return true
	}

	if slices.Contains(entryStates, to) {
		return true
	}

	return slices.Contains(validTransitions[from], to)
}
