package events

import (
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var ErrUnknownEventType = errors.New("unknown event type")
var ErrUnmarshallingEventFailed = errors.New("unmarshalling event from json failed")

// EventTypeString names an event, e.g. "PlantMatured".
type EventTypeString = string

// Event is implemented by PlantEvent, StockEvent and *OrderEvent only.
type Event interface {
	EventType() EventTypeString
	HasOccurredAt() time.Time
	PayloadToJSON() ([]byte, error)
	isEvent()
}

// PlantEventKind classifies what happened to a plant.
type PlantEventKind string

const (
	PlantMatured PlantEventKind = "Matured"
	PlantWilted  PlantEventKind = "Wilted"
	PlantDied    PlantEventKind = "Died"
	PlantRemoved PlantEventKind = "Removed"
)

// PlantEvent reports a lifecycle transition of one plant, or its removal from the greenhouse.
type PlantEvent struct {
	PlantID    string
	SKU        string
	Kind       PlantEventKind
	OccurredAt time.Time
}

func (e PlantEvent) EventType() EventTypeString { return "Plant" + string(e.Kind) }
func (e PlantEvent) HasOccurredAt() time.Time   { return e.OccurredAt }
func (PlantEvent) isEvent()                     {}

func (e PlantEvent) PayloadToJSON() ([]byte, error) {
	return jsoniter.ConfigFastest.Marshal(e)
}

// StockEventKind classifies a stock movement.
type StockEventKind string

const (
	StockReserved StockEventKind = "Reserved"
	StockReleased StockEventKind = "Released"
	StockSold     StockEventKind = "Sold"
	StockLow      StockEventKind = "Low"
	StockAdded    StockEventKind = "Added"
)

// StockEvent reports a stock movement. Key is a SKU for Added and Low, and a plant ID otherwise.
type StockEvent struct {
	Key        string
	Kind       StockEventKind
	Quantity   int
	OccurredAt time.Time
}

func (e StockEvent) EventType() EventTypeString { return "Stock" + string(e.Kind) }
func (e StockEvent) HasOccurredAt() time.Time   { return e.OccurredAt }
func (StockEvent) isEvent()                     {}

func (e StockEvent) PayloadToJSON() ([]byte, error) {
	return jsoniter.ConfigFastest.Marshal(e)
}

// OrderEventKind classifies an order lifecycle step.
type OrderEventKind string

const (
	OrderPlaced    OrderEventKind = "Placed"
	OrderRejected  OrderEventKind = "Rejected"
	OrderCompleted OrderEventKind = "Completed"
	OrderCancelled OrderEventKind = "Cancelled"
)

// OrderLine requests Quantity plants of one SKU.
type OrderLine struct {
	SKU      string
	Quantity int
}

// OrderEvent reports an order lifecycle step. Observers may set StaffID on Placed events.
type OrderEvent struct {
	OrderID    string
	CustomerID string
	StaffID    string
	Kind       OrderEventKind
	Lines      []OrderLine
	PlantIDs   []string
	Reason     string
	OccurredAt time.Time
}

func (e *OrderEvent) EventType() EventTypeString { return "Order" + string(e.Kind) }
func (e *OrderEvent) HasOccurredAt() time.Time   { return e.OccurredAt }
func (*OrderEvent) isEvent()                     {}

func (e *OrderEvent) PayloadToJSON() ([]byte, error) {
	return jsoniter.ConfigFastest.Marshal(e)
}

// EventFromJSON decodes a payload produced by PayloadToJSON for the given event type.
func EventFromJSON(eventType EventTypeString, payload []byte) (Event, error) {
	switch eventType {
	case "PlantMatured", "PlantWilted", "PlantDied", "PlantRemoved":
		var event PlantEvent
		if err := jsoniter.ConfigFastest.Unmarshal(payload, &event); err != nil {
			return nil, errors.Join(ErrUnmarshallingEventFailed, err)
		}

		return event, nil

	case "StockReserved", "StockReleased", "StockSold", "StockLow", "StockAdded":
		var event StockEvent
		if err := jsoniter.ConfigFastest.Unmarshal(payload, &event); err != nil {
			return nil, errors.Join(ErrUnmarshallingEventFailed, err)
		}

		return event, nil

	case "OrderPlaced", "OrderRejected", "OrderCompleted", "OrderCancelled":
		event := new(OrderEvent)
		if err := jsoniter.ConfigFastest.Unmarshal(payload, event); err != nil {
			return nil, errors.Join(ErrUnmarshallingEventFailed, err)
		}

		return event, nil
	}

	return nil, ErrUnknownEventType
}
