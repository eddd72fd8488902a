package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/AntonStoeckl/plant-nursery-go/events"
	"github.com/AntonStoeckl/plant-nursery-go/nursery"
)

var ErrInvariantViolated = errors.New("inventory invariant violated")

// Status is the sales status of a plant.
type Status string

const (
	Available Status = "Available"
	Reserved  Status = "Reserved"
	Sold      Status = "Sold"
	Wilted    Status = "Wilted"
	Dead      Status = "Dead"
)

const (
	TransitionsMetric = "inventory_transitions_total"

	logMsgTransition         = "inventory status changed"
	logMsgRejectedTransition = "inventory transition rejected"
	logMsgPurged             = "inventory record purged"

	removedLabel = "Removed"

	logAttrPlantID = "plant_id"
	logAttrSKU     = "sku"
	logAttrFrom    = "from"
	logAttrTo      = "to"
)

// Record is the inventory entry of one plant.
type Record struct {
	PlantID string
	SKU     string
	Status  Status
}

type idSet map[string]struct{}

// Service is safe for concurrent use.
type Service struct {
	mu        sync.Mutex
	byID      map[string]*Record
	available map[string]idSet
	reserved  map[string]idSet
	sold      map[string]idSet

	observability nursery.Observability
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets a plain logger.
func WithLogger(logger nursery.Logger) Option {
	return func(s *Service) { s.observability.Logger = logger }
}

// WithContextualLogger sets a context-aware logger.
func WithContextualLogger(logger nursery.ContextualLogger) Option {
	return func(s *Service) { s.observability.ContextualLogger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(collector nursery.MetricsCollector) Option {
	return func(s *Service) { s.observability.Metrics = collector }
}

// NewService creates an empty inventory.
func NewService(options ...Option) *Service {
	s := &Service{
		byID:      make(map[string]*Record),
		available: make(map[string]idSet),
		reserved:  make(map[string]idSet),
		sold:      make(map[string]idSet),
	}

	for _, option := range options {
		option(s)
	}

	return s
}

func (s *Service) setFor(status Status) map[string]idSet {
	switch status {
	case Available:
		return s.available
	case Reserved:
		return s.reserved
	case Sold:
		return s.sold
	default:
		return nil
	}
}

// moveLocked changes the status of rec and keeps the per-SKU sets in step.
func (s *Service) moveLocked(ctx context.Context, rec *Record, to Status) {
	from := rec.Status

	s.unindexLocked(rec)

	if sets := s.setFor(to); sets != nil {
		if sets[rec.SKU] == nil {
			sets[rec.SKU] = make(idSet)
		}
		sets[rec.SKU][rec.PlantID] = struct{}{}
	}

	rec.Status = to

	s.observability.Debug(ctx, logMsgTransition,
		logAttrPlantID, rec.PlantID, logAttrSKU, rec.SKU, logAttrFrom, string(from), logAttrTo, string(to))
	s.observability.IncrementCounter(ctx, TransitionsMetric, map[string]string{logAttrTo: string(to)})
}

func (s *Service) unindexLocked(rec *Record) {
	for _, sets := range []map[string]idSet{s.available, s.reserved, s.sold} {
		if set, ok := sets[rec.SKU]; ok {
			delete(set, rec.PlantID)
			if len(set) == 0 {
				delete(sets, rec.SKU)
			}
		}
	}
}

// purgeLocked forgets rec entirely.
func (s *Service) purgeLocked(ctx context.Context, rec *Record) {
	s.unindexLocked(rec)
	delete(s.byID, rec.PlantID)

	s.observability.Debug(ctx, logMsgPurged, logAttrPlantID, rec.PlantID, logAttrSKU, rec.SKU, logAttrFrom, string(rec.Status))
	s.observability.IncrementCounter(ctx, TransitionsMetric, map[string]string{logAttrTo: removedLabel})
}

func (s *Service) rejected(ctx context.Context, id string, to Status) bool {
	s.observability.Debug(ctx, logMsgRejectedTransition, logAttrPlantID, id, logAttrTo, string(to))
	return false
}

// AddPlant registers id as Available. It returns false when id is already known.
func (s *Service) AddPlant(id, sku string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[id]; exists {
		return s.rejected(context.Background(), id, Available)
	}

	rec := &Record{PlantID: id, SKU: sku}
	s.byID[id] = rec
	s.moveLocked(context.Background(), rec, Available)

	return true
}

// ReservePlant moves an Available plant to Reserved.
func (s *Service) ReservePlant(id string) bool {
	return s.transition(context.Background(), id, Reserved, Available)
}

// ReleasePlantFromOrder moves a Reserved plant back to Available.
func (s *Service) ReleasePlantFromOrder(id string) bool {
	return s.transition(context.Background(), id, Available, Reserved)
}

// MarkSold moves an Available or Reserved plant to Sold.
func (s *Service) MarkSold(id string) bool {
	return s.transition(context.Background(), id, Sold, Available, Reserved)
}

func (s *Service) transition(ctx context.Context, id string, to Status, allowedFrom ...Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return s.rejected(ctx, id, to)
	}

	for _, from := range allowedFrom {
		if rec.Status == from {
			s.moveLocked(ctx, rec, to)
			return true
		}
	}

	return s.rejected(ctx, id, to)
}

// ReserveAnyAvailable reserves the Available plant of sku with the smallest ID.
func (s *Service) ReserveAnyAvailable(sku string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.available[sku]
	if len(set) == 0 {
		return "", false
	}

	id := sortedIDs(set)[0]
	s.moveLocked(context.Background(), s.byID[id], Reserved)

	return id, true
}

// AvailableCount returns the number of Available plants of sku.
func (s *Service) AvailableCount(sku string) int { return s.count(s.available, sku) }

// ReservedCount returns the number of Reserved plants of sku.
func (s *Service) ReservedCount(sku string) int { return s.count(s.reserved, sku) }

// SoldCount returns the number of Sold plants of sku.
func (s *Service) SoldCount(sku string) int { return s.count(s.sold, sku) }

func (s *Service) count(sets map[string]idSet, sku string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(sets[sku])
}

// ListAvailablePlants returns every Available plant ID, sorted.
func (s *Service) ListAvailablePlants() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for _, set := range s.available {
		for id := range set {
			ids = append(ids, id)
		}
	}

	sort.Strings(ids)

	return ids
}

// Status returns the status of id.
func (s *Service) Status(id string) (Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return "", false
	}

	return rec.Status, true
}

// Lookup returns a copy of the record of id.
func (s *Service) Lookup(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return Record{}, false
	}

	return *rec, true
}

// OnPlantEvent follows the greenhouse lifecycle:
//   - Matured: unknown plants become Available, Wilted plants are reinstated as Available,
//     every other status is kept
//   - Wilted: Available plants become Wilted, every other status is kept
//   - Died: the plant becomes Dead and leaves every set; unknown plants are recorded as Dead
//   - Removed: the plant left the greenhouse unsold and its record is purged; Sold and Dead
//     records are kept as history
func (s *Service) OnPlantEvent(ctx context.Context, event events.PlantEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, known := s.byID[event.PlantID]

	switch event.Kind {
	case events.PlantMatured:
		if !known {
			rec = &Record{PlantID: event.PlantID, SKU: event.SKU}
			s.byID[event.PlantID] = rec
			s.moveLocked(ctx, rec, Available)

			return
		}

		if rec.Status == Wilted {
			s.moveLocked(ctx, rec, Available)
		}

	case events.PlantWilted:
		if known && rec.Status == Available {
			s.moveLocked(ctx, rec, Wilted)
		}

	case events.PlantDied:
		if !known {
			rec = &Record{PlantID: event.PlantID, SKU: event.SKU}
			s.byID[event.PlantID] = rec
		}

		if rec.Status != Dead {
			s.moveLocked(ctx, rec, Dead)
		}

	case events.PlantRemoved:
		if known && rec.Status != Sold && rec.Status != Dead {
			s.purgeLocked(ctx, rec)
		}
	}
}

// CheckInvariants verifies that every record sits in exactly the set its status demands.
func (s *Service) CheckInvariants() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]Status)

	for _, status := range []Status{Available, Reserved, Sold} {
		for sku, set := range s.setFor(status) {
			for id := range set {
				if other, dup := seen[id]; dup {
					return fmt.Errorf("%w: %s in both %s and %s", ErrInvariantViolated, id, other, status)
				}

				seen[id] = status

				rec, ok := s.byID[id]
				if !ok || rec.Status != status || rec.SKU != sku {
					return fmt.Errorf("%w: %s indexed as %s/%s", ErrInvariantViolated, id, sku, status)
				}
			}
		}
	}

	for id, rec := range s.byID {
		if s.setFor(rec.Status) != nil && seen[id] != rec.Status {
			return fmt.Errorf("%w: %s is %s but not indexed", ErrInvariantViolated, id, rec.Status)
		}
	}

	return nil
}

func sortedIDs(set idSet) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

var _ events.PlantObserver = (*Service)(nil)
