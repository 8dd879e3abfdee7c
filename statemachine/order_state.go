package statemachine

import (
	"strings"

	"nexus-bakery-api/models"
)

// Transition defines a valid state change and who can perform it
type Transition[S ~string] struct {
	From   S                 `json:"from"`
	To     S                 `json:"to"`
	Actors []models.UserRole `json:"actors"`
	// Only restricts the transition to one fulfillment type; empty means any
	Only models.FulfillmentType `json:"only,omitempty"`
}

// TransitionError explains why a requested change was refused
type TransitionError struct {
	Track string
	From  string
	To    string
	Valid []string
}

func (e *TransitionError) Error() string {
	valid := "none (terminal state)"
	if len(e.Valid) > 0 {
		valid = strings.Join(e.Valid, ", ")
	}
	return "invalid " + e.Track + " transition: " + e.From + " → " + e.To +
		". Valid transitions from " + e.From + " are: " + valid
}

// Machine is a forward-only state machine over an ordered sequence of states
type Machine[S ~string] struct {
	track       string
	sequence    []S
	transitions []Transition[S]
	rank        map[S]int
}

func newMachine[S ~string](track string, sequence []S, transitions []Transition[S]) *Machine[S] {
	m := &Machine[S]{
		track:       track,
		sequence:    sequence,
		transitions: transitions,
		rank:        make(map[S]int, len(sequence)),
	}
	for i, s := range sequence {
		m.rank[s] = i
	}
	return m
}

// Status is the authoritative customer-facing state machine
var Status = newMachine("status",
	[]models.OrderStatus{
		models.StatusPending,
		models.StatusConfirmed,
		models.StatusProduction,
		models.StatusReady,
		models.StatusDelivering,
		models.StatusDelivered,
	},
	[]Transition[models.OrderStatus]{
		// Admin validates the order
		{From: models.StatusPending, To: models.StatusConfirmed, Actors: roles(models.RoleAdmin)},
		// Kitchen picks it up
		{From: models.StatusConfirmed, To: models.StatusProduction, Actors: roles(models.RoleAdmin, models.RoleBaker)},
		{From: models.StatusProduction, To: models.StatusReady, Actors: roles(models.RoleAdmin, models.RoleBaker)},
		// Driver takes delivery orders out
		{From: models.StatusReady, To: models.StatusDelivering, Actors: roles(models.RoleDriver, models.RoleAdmin), Only: models.FulfillmentDelivery},
		{From: models.StatusDelivering, To: models.StatusDelivered, Actors: roles(models.RoleDriver, models.RoleAdmin), Only: models.FulfillmentDelivery},
		// Pickup orders are handed over at the counter
		{From: models.StatusReady, To: models.StatusDelivered, Actors: roles(models.RoleAdmin), Only: models.FulfillmentPickup},
	},
)

// Production is the kitchen state machine; every step has exactly one successor
var Production = newMachine("production",
	[]models.ProductionStep{
		models.StepQueue,
		models.StepMixing,
		models.StepBaking,
		models.StepDecorating,
		models.StepPackaging,
		models.StepCompleted,
	},
	[]Transition[models.ProductionStep]{
		{From: models.StepQueue, To: models.StepMixing, Actors: roles(models.RoleBaker, models.RoleAdmin)},
		{From: models.StepMixing, To: models.StepBaking, Actors: roles(models.RoleBaker, models.RoleAdmin)},
		{From: models.StepBaking, To: models.StepDecorating, Actors: roles(models.RoleBaker, models.RoleAdmin)},
		{From: models.StepDecorating, To: models.StepPackaging, Actors: roles(models.RoleBaker, models.RoleAdmin)},
		{From: models.StepPackaging, To: models.StepCompleted, Actors: roles(models.RoleBaker, models.RoleAdmin)},
	},
)

func roles(r ...models.UserRole) []models.UserRole { return r }

// Known reports whether s belongs to this machine
func (m *Machine[S]) Known(s S) bool {
	_, ok := m.rank[s]
	return ok
}

// Rank is the position of s in the sequence, -1 when unknown
func (m *Machine[S]) Rank(s S) int {
	if r, ok := m.rank[s]; ok {
		return r
	}
	return -1
}

// AtLeast reports whether s has reached or passed target
func (m *Machine[S]) AtLeast(s, target S) bool {
	return m.Rank(s) >= m.Rank(target)
}

// Next returns the successor of s for the given fulfillment type
func (m *Machine[S]) Next(s S, fulfillment models.FulfillmentType) (S, bool) {
	for _, t := range m.transitions {
		if t.From == s && allows(t, fulfillment) {
			return t.To, true
		}
	}
	var zero S
	return zero, false
}

// ValidTransitionsFrom returns all valid next states from a given state
func (m *Machine[S]) ValidTransitionsFrom(s S, fulfillment models.FulfillmentType) []S {
	var nexts []S
	for _, t := range m.transitions {
		if t.From == s && allows(t, fulfillment) {
			nexts = append(nexts, t.To)
		}
	}
	return nexts
}

// CanTransition checks whether from → to is a single valid forward step
func (m *Machine[S]) CanTransition(from, to S, fulfillment models.FulfillmentType) error {
	for _, t := range m.transitions {
		if t.From == from && t.To == to && allows(t, fulfillment) {
			return nil
		}
	}
	valid := m.ValidTransitionsFrom(from, fulfillment)
	names := make([]string, len(valid))
	for i, s := range valid {
		names[i] = string(s)
	}
	return &TransitionError{Track: m.track, From: string(from), To: string(to), Valid: names}
}

// Permits reports whether role may perform from → to
func (m *Machine[S]) Permits(from, to S, role models.UserRole) bool {
	for _, t := range m.transitions {
		if t.From != from || t.To != to {
			continue
		}
		for _, r := range t.Actors {
			if r == role {
				return true
			}
		}
	}
	return false
}

// GetAllTransitions returns the full state machine for documentation
func (m *Machine[S]) GetAllTransitions() []Transition[S] {
	return m.transitions
}

// Sequence returns the states in order
func (m *Machine[S]) Sequence() []S {
	return m.sequence
}

func allows[S ~string](t Transition[S], fulfillment models.FulfillmentType) bool {
	return t.Only == "" || fulfillment == "" || t.Only == fulfillment
}
