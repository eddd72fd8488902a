package sales

import (
	"context"
	"sort"
	"sync"

	"github.com/AntonStoeckl/plant-nursery-go/events"
)

// StaffRoster tracks how many open orders each staff member handles.
type StaffRoster struct {
	mu   sync.Mutex
	load map[string]int
}

// NewStaffRoster creates a roster with every staff member at zero load.
func NewStaffRoster(staffIDs ...string) *StaffRoster {
	r := &StaffRoster{load: make(map[string]int)}
	for _, id := range staffIDs {
		r.AddStaff(id)
	}

	return r
}

// AddStaff registers id with zero load. Registering an existing member is a no-op.
func (r *StaffRoster) AddStaff(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.load[id]; !exists {
		r.load[id] = 0
	}
}

// AssignLeastLoaded increments and returns the member with the lowest load, ties broken by ID.
func (r *StaffRoster) AssignLeastLoaded() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.load) == 0 {
		return "", false
	}

	ids := make([]string, 0, len(r.load))
	for id := range r.load {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	chosen := ids[0]
	for _, id := range ids[1:] {
		if r.load[id] < r.load[chosen] {
			chosen = id
		}
	}

	r.load[chosen]++

	return chosen, true
}

// Release decrements the load of id, never below zero.
func (r *StaffRoster) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.load[id] > 0 {
		r.load[id]--
	}
}

// Load returns the open-order count of id.
func (r *StaffRoster) Load(id string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	load, ok := r.load[id]

	return load, ok
}

// OnOrderEvent assigns staff to placed orders that have none and frees them once the order closes.
func (r *StaffRoster) OnOrderEvent(_ context.Context, event *events.OrderEvent) {
	switch event.Kind {
	case events.OrderPlaced:
		if event.StaffID != "" {
			return
		}

		if id, ok := r.AssignLeastLoaded(); ok {
			event.StaffID = id
		}

	case events.OrderCompleted, events.OrderCancelled:
		if event.StaffID != "" {
			r.Release(event.StaffID)
		}
	}
}

var _ events.OrderObserver = (*StaffRoster)(nil)
