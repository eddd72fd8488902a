package actionlog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	ErrUndoNotSupported = errors.New("command cannot be undone")
	ErrRestockFailed    = errors.New("restock added no plants")
	ErrNotExecuted      = errors.New("command has not been executed")
	ErrMacroRolledBack  = errors.New("macro failed and was rolled back")
)

const (
	CommandTypeWater     = "Water"
	CommandTypeFertilize = "Fertilize"
	CommandTypeSpray     = "Spray"
	CommandTypeRestock   = "Restock"
	CommandTypeMacro     = "Macro"
)

// Command is an executable, possibly undoable, action.
type Command interface {
	Execute(ctx context.Context) error
	Undo(ctx context.Context) error
	Description() string
	CommandType() string
	IssuedBy() string
	Undoable() bool
}

// Greenhouse is what commands need from the plant population.
type Greenhouse interface {
	Water(ctx context.Context, plantID string) error
	Fertilize(ctx context.Context, plantID string) error
	SprayInsecticide(ctx context.Context, plantID string) error
	ReceiveShipment(ctx context.Context, sku string, count int) []string
	PlantIDsBySKU(sku string) []string
	RemovePlant(ctx context.Context, plantID string) bool
}

type careCommand struct {
	commandType string
	greenhouse  Greenhouse
	plantID     string
	issuedBy    string
	apply       func(Greenhouse, context.Context, string) error
}

// NewWater waters one plant.
func NewWater(greenhouse Greenhouse, issuedBy, plantID string) Command {
	return careCommand{
		commandType: CommandTypeWater,
		greenhouse:  greenhouse,
		plantID:     plantID,
		issuedBy:    issuedBy,
		apply:       Greenhouse.Water,
	}
}

// NewFertilize fertilizes one plant.
func NewFertilize(greenhouse Greenhouse, issuedBy, plantID string) Command {
	return careCommand{
		commandType: CommandTypeFertilize,
		greenhouse:  greenhouse,
		plantID:     plantID,
		issuedBy:    issuedBy,
		apply:       Greenhouse.Fertilize,
	}
}

// NewSpray sprays insecticide on one plant.
func NewSpray(greenhouse Greenhouse, issuedBy, plantID string) Command {
	return careCommand{
		commandType: CommandTypeSpray,
		greenhouse:  greenhouse,
		plantID:     plantID,
		issuedBy:    issuedBy,
		apply:       Greenhouse.SprayInsecticide,
	}
}

func (c careCommand) Execute(ctx context.Context) error {
	return c.apply(c.greenhouse, ctx, c.plantID)
}

func (c careCommand) Undo(context.Context) error { return ErrUndoNotSupported }
func (c careCommand) CommandType() string        { return c.commandType }
func (c careCommand) IssuedBy() string           { return c.issuedBy }
func (c careCommand) Undoable() bool             { return false }

func (c careCommand) Description() string {
	return fmt.Sprintf("%s %s", strings.ToLower(c.commandType), c.plantID)
}

// RestockCommand receives a shipment and can remove exactly the plants it added.
type RestockCommand struct {
	greenhouse Greenhouse
	sku        string
	count      int
	issuedBy   string

	mu    sync.Mutex
	added []string
}

// NewRestock returns an undoable command that receives count plants of sku.
func NewRestock(greenhouse Greenhouse, issuedBy, sku string, count int) *RestockCommand {
	return &RestockCommand{greenhouse: greenhouse, sku: sku, count: count, issuedBy: issuedBy}
}

// Execute records the plant IDs of sku that exist afterwards but did not exist before.
func (c *RestockCommand) Execute(ctx context.Context) error {
	before := make(map[string]struct{})
	for _, id := range c.greenhouse.PlantIDsBySKU(c.sku) {
		before[id] = struct{}{}
	}

	c.greenhouse.ReceiveShipment(ctx, c.sku, c.count)

	var added []string
	for _, id := range c.greenhouse.PlantIDsBySKU(c.sku) {
		if _, existed := before[id]; !existed {
			added = append(added, id)
		}
	}

	if len(added) == 0 {
		return fmt.Errorf("%w: %d x %s", ErrRestockFailed, c.count, c.sku)
	}

	c.mu.Lock()
	c.added = added
	c.mu.Unlock()

	return nil
}

// Undo removes the plants added by the last Execute. Plants already gone are skipped.
// Each removal is announced on the greenhouse bus so the inventory drops the plant too.
func (c *RestockCommand) Undo(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.added == nil {
		return ErrNotExecuted
	}

	for _, id := range c.added {
		c.greenhouse.RemovePlant(ctx, id)
	}

	c.added = nil

	return nil
}

// Added returns the IDs added by the last Execute.
func (c *RestockCommand) Added() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.added...)
}

func (c *RestockCommand) CommandType() string { return CommandTypeRestock }
func (c *RestockCommand) IssuedBy() string    { return c.issuedBy }
func (c *RestockCommand) Undoable() bool      { return true }

func (c *RestockCommand) Description() string {
	return fmt.Sprintf("restock %d x %s", c.count, c.sku)
}

// MacroCommand runs sub-commands in order as one unit.
type MacroCommand struct {
	label    string
	issuedBy string
	commands []Command
}

// NewMacro returns a command that runs commands in order under one label.
func NewMacro(issuedBy, label string, commands ...Command) *MacroCommand {
	return &MacroCommand{label: label, issuedBy: issuedBy, commands: commands}
}

// Execute stops at the first failing sub-command and undoes the already executed ones in
// reverse order. Sub-commands that cannot be undone are left as they are.
func (m *MacroCommand) Execute(ctx context.Context) error {
	for i, cmd := range m.commands {
		err := cmd.Execute(ctx)
		if err == nil {
			continue
		}

		failure := []error{ErrMacroRolledBack, fmt.Errorf("%s: %w", cmd.Description(), err)}
		for j := i - 1; j >= 0; j-- {
			if undoErr := m.commands[j].Undo(ctx); undoErr != nil && !errors.Is(undoErr, ErrUndoNotSupported) {
				failure = append(failure, fmt.Errorf("rollback %s: %w", m.commands[j].Description(), undoErr))
			}
		}

		return errors.Join(failure...)
	}

	return nil
}

// Undo reverts every sub-command in reverse order.
func (m *MacroCommand) Undo(ctx context.Context) error {
	var errs []error
	for i := len(m.commands) - 1; i >= 0; i-- {
		if err := m.commands[i].Undo(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Undoable reports whether every sub-command is undoable. An empty macro is undoable.
func (m *MacroCommand) Undoable() bool {
	for _, cmd := range m.commands {
		if !cmd.Undoable() {
			return false
		}
	}

	return true
}

func (m *MacroCommand) CommandType() string { return CommandTypeMacro }
func (m *MacroCommand) IssuedBy() string    { return m.issuedBy }

func (m *MacroCommand) Description() string {
	parts := make([]string, len(m.commands))
	for i, cmd := range m.commands {
		parts[i] = cmd.Description()
	}

	return fmt.Sprintf("%s [%s]", m.label, strings.Join(parts, "; "))
}
