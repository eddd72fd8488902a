package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"sort"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/plant-nursery-go/actionlog"
	"github.com/AntonStoeckl/plant-nursery-go/events"
	"github.com/AntonStoeckl/plant-nursery-go/journal"
	"github.com/AntonStoeckl/plant-nursery-go/plant"
	"github.com/AntonStoeckl/plant-nursery-go/sales"
)

const (
	thirstyBelow      = 40
	weakBelow         = 60
	unprotectedBelow  = 30
	restockBelow      = 2
	restockChance     = 0.3
	returnChance      = 0.05
	orderChance       = 0.5
	completeChance    = 0.4
	cancelChance      = 0.1
	recentEntryLimit  = 5
	maxOrderQuantity  = 2
	minShipmentSize   = 3
	shipmentSizeRange = 4
)

// simulation drives staff and customers against a wired nursery, one tick at a time.
type simulation struct {
	app *app
	rng *rand.Rand
}

func newSimulation(a *app, seed int64) *simulation {
	return &simulation{
		app: a,
		rng: rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)),
	}
}

func (s *simulation) staffMember() string {
	if len(s.app.staff) == 0 {
		return "system"
	}

	return s.app.staff[s.rng.IntN(len(s.app.staff))]
}

// stockUp receives the initial shipments as one undoable macro.
func (s *simulation) stockUp(ctx context.Context, stock map[string]int) {
	if len(stock) == 0 {
		stock = make(map[string]int)
		for _, record := range s.app.greenhouse.Catalog().All() {
			stock[record.SKU] = minShipmentSize
		}
	}

	skus := make([]string, 0, len(stock))
	for sku := range stock {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	restocks := make([]actionlog.Command, 0, len(skus))
	for _, sku := range skus {
		restocks = append(restocks, actionlog.NewRestock(s.app.greenhouse, "system", sku, stock[sku]))
	}

	s.app.actions.Enqueue(ctx, actionlog.NewMacro("system", "opening stock", restocks...))
	s.app.actions.ProcessAll(ctx)
}

func (s *simulation) step(ctx context.Context, tick int) {
	s.care(ctx)
	s.restock(ctx)

	processed := s.app.actions.ProcessAll(ctx)
	report := s.app.greenhouse.TickAll(ctx)

	s.shop(ctx)

	s.app.logger.InfoContext(ctx, "tick completed",
		"tick", tick,
		"commands", processed,
		"plants", s.app.greenhouse.Len(),
		"matured", report.Matured,
		"wilted", report.Wilted,
		"died", report.Died,
		"available", len(s.app.inventory.ListAvailablePlants()),
	)
}

// care enqueues the care each plant visibly needs. Plants needing several treatments get them
// as one macro.
func (s *simulation) care(ctx context.Context) {
	for p := range s.app.greenhouse.Iterate() {
		if p.State().IsTerminal() {
			continue
		}

		staff := s.staffMember()

		var treatments []actionlog.Command
		if p.Moisture() < thirstyBelow {
			treatments = append(treatments, actionlog.NewWater(s.app.greenhouse, staff, p.ID()))
		}
		if p.Health() < weakBelow {
			treatments = append(treatments, actionlog.NewFertilize(s.app.greenhouse, staff, p.ID()))
		}
		if p.Insecticide() < unprotectedBelow {
			treatments = append(treatments, actionlog.NewSpray(s.app.greenhouse, staff, p.ID()))
		}

		switch len(treatments) {
		case 0:
		case 1:
			s.app.actions.Enqueue(ctx, treatments[0])
		default:
			s.app.actions.Enqueue(ctx, actionlog.NewMacro(staff, "treat "+p.ID(), treatments...))
		}
	}
}

func (s *simulation) restock(ctx context.Context) {
	for _, record := range s.app.greenhouse.Catalog().All() {
		if s.app.greenhouse.CountBySKU(record.SKU) >= restockBelow || s.rng.Float64() >= restockChance {
			continue
		}

		count := minShipmentSize + s.rng.IntN(shipmentSizeRange)
		s.app.actions.Enqueue(ctx, actionlog.NewRestock(s.app.greenhouse, s.staffMember(), record.SKU, count))
	}

	if s.rng.Float64() < returnChance {
		err := s.app.actions.UndoLastRestock(ctx)
		if err != nil && !errors.Is(err, actionlog.ErrNothingToUndo) {
			s.app.logger.WarnContext(ctx, "returning shipment failed", "error", err.Error())
		}
	}
}

func (s *simulation) shop(ctx context.Context) {
	for _, order := range s.app.sales.OpenOrders() {
		switch roll := s.rng.Float64(); {
		case roll < completeChance:
			_, _ = s.app.sales.CompleteOrder(ctx, order.ID)
		case roll < completeChance+cancelChance:
			_, _ = s.app.sales.CancelOrder(ctx, order.ID)
		}
	}

	if s.rng.Float64() >= orderChance {
		return
	}

	available := s.app.inventory.ListAvailablePlants()
	if len(available) == 0 {
		return
	}

	record, ok := s.app.inventory.Lookup(available[s.rng.IntN(len(available))])
	if !ok {
		return
	}

	line := events.OrderLine{SKU: record.SKU, Quantity: 1 + s.rng.IntN(maxOrderQuantity)}
	_, err := s.app.sales.PlaceOrder(ctx, uuid.NewString(), []events.OrderLine{line})
	if err != nil && !errors.Is(err, sales.ErrInsufficientStock) {
		s.app.logger.WarnContext(ctx, "placing order failed", "error", err.Error())
	}
}

// summarize logs the final population and the most recent journal entries.
func (s *simulation) summarize(ctx context.Context) {
	for _, state := range plant.States() {
		count := 0
		for range s.app.greenhouse.IterateByState(state) {
			count++
		}
		s.app.logger.InfoContext(ctx, "final population", "state", state.Name(), "plants", count)
	}

	reader, ok := s.app.journal.(journal.Reader)
	if !ok {
		return
	}

	entries, err := reader.Recent(ctx, recentEntryLimit)
	if err != nil {
		s.app.logger.WarnContext(ctx, "reading journal failed", "error", err.Error())
		return
	}

	for _, entry := range entries {
		s.app.logger.InfoContext(ctx, "journal entry",
			"category", entry.Category,
			"action", entry.Action,
			"actor", entry.Actor,
			"subject", entry.Subject,
		)
	}
}
