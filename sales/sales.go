package sales

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/plant-nursery-go/events"
	"github.com/AntonStoeckl/plant-nursery-go/nursery"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidOrder      = errors.New("invalid order")
	ErrInvalidOrderState = errors.New("invalid order state")
	ErrOrderNotFound     = errors.New("order not found")
)

// DefaultLowStockThreshold is the available count below which a StockLow event is published.
const DefaultLowStockThreshold = 3

const (
	OrdersMetric = "sales_orders_total"

	logMsgOrderPlaced     = "order placed"
	logMsgOrderRejected   = "order rejected"
	logMsgOrderCompleted  = "order completed"
	logMsgOrderCancelled  = "order cancelled"
	logMsgPlantNotSold    = "reserved plant could not be sold"
	logMsgPlantNotRemoved = "sold plant was not in the greenhouse"

	logAttrOrderID  = "order_id"
	logAttrCustomer = "customer_id"
	logAttrStaffID  = "staff_id"
	logAttrPlantID  = "plant_id"
	logAttrOutcome  = "outcome"
	logAttrReason   = "reason"
	logAttrPlants   = "plant_count"
)

// OrderStatus is the lifecycle position of a stored order. Rejected orders are never stored.
type OrderStatus string

const (
	StatusPlaced    OrderStatus = "Placed"
	StatusCompleted OrderStatus = "Completed"
	StatusCancelled OrderStatus = "Cancelled"
)

// Order is the sales-side record of one order.
type Order struct {
	ID         string
	CustomerID string
	StaffID    string
	Lines      []events.OrderLine
	PlantIDs   []string
	Status     OrderStatus
	PlacedAt   time.Time
	ClosedAt   time.Time
}

func (o *Order) clone() *Order {
	c := *o
	c.Lines = append([]events.OrderLine(nil), o.Lines...)
	c.PlantIDs = append([]string(nil), o.PlantIDs...)

	return &c
}

// Inventory is what the sales service needs from the inventory.
type Inventory interface {
	ReserveAnyAvailable(sku string) (string, bool)
	ReleasePlantFromOrder(plantID string) bool
	MarkSold(plantID string) bool
	AvailableCount(sku string) int
}

// PlantRemover takes sold plants out of the greenhouse.
type PlantRemover interface {
	RemovePlant(ctx context.Context, plantID string) bool
}

// Service is safe for concurrent use.
type Service struct {
	inventory  Inventory
	greenhouse PlantRemover
	bus        *events.Bus
	clock      nursery.Clock
	lowStock   int

	mu     sync.Mutex
	orders map[string]*Order

	observability nursery.Observability
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for order timestamps.
func WithClock(clock nursery.Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// WithLowStockThreshold sets the threshold for StockLow events. Zero disables them.
func WithLowStockThreshold(threshold int) Option {
	return func(s *Service) { s.lowStock = threshold }
}

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

// NewService creates a sales service. A nil bus gets a private one and a nil greenhouse
// skips plant removal on completion.
func NewService(inventory Inventory, greenhouse PlantRemover, bus *events.Bus, options ...Option) *Service {
	if bus == nil {
		bus = events.NewBus()
	}

	s := &Service{
		inventory:  inventory,
		greenhouse: greenhouse,
		bus:        bus,
		clock:      nursery.SystemClock,
		lowStock:   DefaultLowStockThreshold,
		orders:     make(map[string]*Order),
	}

	for _, option := range options {
		option(s)
	}

	return s
}

// PlaceOrder reserves one plant per requested unit. When any line cannot be filled every plant
// reserved so far is released, an OrderRejected event is published and ErrInsufficientStock
// is returned.
func (s *Service) PlaceOrder(ctx context.Context, customerID string, lines []events.OrderLine) (*Order, error) {
	if err := validateLines(lines); err != nil {
		return nil, err
	}

	orderID := uuid.NewString()
	now := s.clock.Now()

	var reserved []string
	for _, line := range lines {
		for range line.Quantity {
			id, ok := s.inventory.ReserveAnyAvailable(line.SKU)
			if !ok {
				return nil, s.reject(ctx, orderID, customerID, lines, reserved, line)
			}

			reserved = append(reserved, id)
		}
	}

	for _, id := range reserved {
		s.bus.PublishStock(ctx, events.StockEvent{Key: id, Kind: events.StockReserved, Quantity: 1, OccurredAt: now})
	}

	s.publishLowStock(ctx, lines, now)

	placed := &events.OrderEvent{
		OrderID:    orderID,
		CustomerID: customerID,
		Kind:       events.OrderPlaced,
		Lines:      lines,
		PlantIDs:   reserved,
		OccurredAt: now,
	}
	s.bus.PublishOrder(ctx, placed)

	order := &Order{
		ID:         orderID,
		CustomerID: customerID,
		StaffID:    placed.StaffID,
		Lines:      append([]events.OrderLine(nil), lines...),
		PlantIDs:   reserved,
		Status:     StatusPlaced,
		PlacedAt:   now,
	}

	s.mu.Lock()
	s.orders[orderID] = order
	s.mu.Unlock()

	s.observability.Info(ctx, logMsgOrderPlaced,
		logAttrOrderID, orderID,
		logAttrCustomer, customerID,
		logAttrStaffID, order.StaffID,
		logAttrPlants, len(reserved),
	)
	s.observability.IncrementCounter(ctx, OrdersMetric, map[string]string{logAttrOutcome: string(events.OrderPlaced)})

	return order.clone(), nil
}

func validateLines(lines []events.OrderLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: no lines", ErrInvalidOrder)
	}

	for _, line := range lines {
		if line.SKU == "" || line.Quantity <= 0 {
			return fmt.Errorf("%w: line %q x %d", ErrInvalidOrder, line.SKU, line.Quantity)
		}
	}

	return nil
}

func (s *Service) reject(
	ctx context.Context,
	orderID string,
	customerID string,
	lines []events.OrderLine,
	reserved []string,
	short events.OrderLine,
) error {
	for _, id := range reserved {
		s.inventory.ReleasePlantFromOrder(id)
	}

	reason := fmt.Sprintf("not enough %s available for %d", short.SKU, short.Quantity)

	s.bus.PublishOrder(ctx, &events.OrderEvent{
		OrderID:    orderID,
		CustomerID: customerID,
		Kind:       events.OrderRejected,
		Lines:      lines,
		Reason:     reason,
		OccurredAt: s.clock.Now(),
	})

	s.observability.Warn(ctx, logMsgOrderRejected,
		logAttrOrderID, orderID,
		logAttrCustomer, customerID,
		logAttrReason, reason,
	)
	s.observability.IncrementCounter(ctx, OrdersMetric, map[string]string{logAttrOutcome: string(events.OrderRejected)})

	return fmt.Errorf("%w: %s", ErrInsufficientStock, reason)
}

func (s *Service) publishLowStock(ctx context.Context, lines []events.OrderLine, now time.Time) {
	if s.lowStock <= 0 {
		return
	}

	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		if _, done := seen[line.SKU]; done {
			continue
		}
		seen[line.SKU] = struct{}{}

		if available := s.inventory.AvailableCount(line.SKU); available < s.lowStock {
			s.bus.PublishStock(ctx, events.StockEvent{Key: line.SKU, Kind: events.StockLow, Quantity: available, OccurredAt: now})
		}
	}
}

// CompleteOrder marks the reserved plants sold and removes them from the greenhouse.
// A plant that died while reserved is skipped.
func (s *Service) CompleteOrder(ctx context.Context, orderID string) (*Order, error) {
	order, err := s.close(orderID, StatusCompleted)
	if err != nil {
		return nil, err
	}

	var sold []string
	for _, id := range order.PlantIDs {
		if !s.inventory.MarkSold(id) {
			s.observability.Warn(ctx, logMsgPlantNotSold, logAttrOrderID, orderID, logAttrPlantID, id)
			continue
		}

		if s.greenhouse != nil && !s.greenhouse.RemovePlant(ctx, id) {
			s.observability.Warn(ctx, logMsgPlantNotRemoved, logAttrOrderID, orderID, logAttrPlantID, id)
		}

		sold = append(sold, id)
		s.bus.PublishStock(ctx, events.StockEvent{Key: id, Kind: events.StockSold, Quantity: 1, OccurredAt: order.ClosedAt})
	}

	s.publishClosed(ctx, order, events.OrderCompleted, sold)
	s.observability.Info(ctx, logMsgOrderCompleted, logAttrOrderID, orderID, logAttrPlants, len(sold))

	return order, nil
}

// CancelOrder releases the reserved plants back to available stock.
func (s *Service) CancelOrder(ctx context.Context, orderID string) (*Order, error) {
	order, err := s.close(orderID, StatusCancelled)
	if err != nil {
		return nil, err
	}

	var released []string
	for _, id := range order.PlantIDs {
		if s.inventory.ReleasePlantFromOrder(id) {
			released = append(released, id)
			s.bus.PublishStock(ctx, events.StockEvent{Key: id, Kind: events.StockReleased, Quantity: 1, OccurredAt: order.ClosedAt})
		}
	}

	s.publishClosed(ctx, order, events.OrderCancelled, released)
	s.observability.Info(ctx, logMsgOrderCancelled, logAttrOrderID, orderID, logAttrPlants, len(released))

	return order, nil
}

// close moves a placed order to its final status and returns a copy.
func (s *Service) close(orderID string, to OrderStatus) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}

	if order.Status != StatusPlaced {
		return nil, fmt.Errorf("%w: %s is %s", ErrInvalidOrderState, orderID, order.Status)
	}

	order.Status = to
	order.ClosedAt = s.clock.Now()

	return order.clone(), nil
}

func (s *Service) publishClosed(ctx context.Context, order *Order, kind events.OrderEventKind, plantIDs []string) {
	s.bus.PublishOrder(ctx, &events.OrderEvent{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		StaffID:    order.StaffID,
		Kind:       kind,
		Lines:      order.Lines,
		PlantIDs:   plantIDs,
		OccurredAt: order.ClosedAt,
	})

	s.observability.IncrementCounter(ctx, OrdersMetric, map[string]string{logAttrOutcome: string(kind)})
}

// Order returns a copy of the stored order.
func (s *Service) Order(orderID string) (*Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return nil, false
	}

	return order.clone(), true
}

// OpenOrders returns copies of all placed orders, oldest first.
func (s *Service) OpenOrders() []*Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	var open []*Order
	for _, order := range s.orders {
		if order.Status == StatusPlaced {
			open = append(open, order.clone())
		}
	}

	sort.Slice(open, func(i, j int) bool {
		if open[i].PlacedAt.Equal(open[j].PlacedAt) {
			return open[i].ID < open[j].ID
		}
		return open[i].PlacedAt.Before(open[j].PlacedAt)
	})

	return open
}
