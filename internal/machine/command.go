// Package machine provisions newly registered vending machines. Setup is a
// sequence of commands; when one fails the already executed ones are undone
// in reverse order.
package machine

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/sipeat/sipeat-events/pkg/events"
	"go.uber.org/zap"
)

// Command is a single reversible setup step.
type Command interface {
	Name() string
	Execute(ctx context.Context) error
	Undo(ctx context.Context) error
}

// defaultDrinks is the initial stock loaded into every new machine.
var defaultDrinks = []string{
	"Coca-Cola", "Pepsi", "Water", "Orange Juice", "Coffee",
	"Fiuzetea – Peach", "Schweppes – Lemonade", "Nectar – Apple",
}

// locationCommand checks that the machine may be placed at its address.
type locationCommand struct {
	machine events.MachineCreated
	log     *zap.Logger
}

func (c *locationCommand) Name() string { return "location-validation" }

func (c *locationCommand) Execute(ctx context.Context) error {
	c.log.Info("validating machine location",
		zap.String("city", c.machine.City),
		zap.String("country", c.machine.Country))

	if strings.Contains(strings.ToLower(c.machine.City), "restricted") {
		return fmt.Errorf("location %s is not authorized for machine placement", c.machine.City)
	}

	if err := sleep(ctx, 100*time.Millisecond); err != nil {
		return err
	}
	c.log.Info("location validated", zap.String("city", c.machine.City))
	return nil
}

func (c *locationCommand) Undo(ctx context.Context) error {
	c.log.Info("reverting location validation", zap.String("machine", c.machine.Name))
	return nil
}

// inventoryCommand loads the default drink selection.
type inventoryCommand struct {
	machine events.MachineCreated
	log     *zap.Logger
}

func (c *inventoryCommand) Name() string { return "inventory-setup" }

func (c *inventoryCommand) Execute(ctx context.Context) error {
	c.log.Info("setting up machine inventory",
		zap.String("machine", c.machine.Name),
		zap.Int("drinks", len(defaultDrinks)),
		zap.Strings("initial_stock", defaultDrinks))

	if err := sleep(ctx, 150*time.Millisecond); err != nil {
		return err
	}
	c.log.Info("inventory setup completed", zap.String("machine", c.machine.Name))
	return nil
}

func (c *inventoryCommand) Undo(ctx context.Context) error {
	c.log.Info("removing inventory setup", zap.String("machine", c.machine.Name))
	return nil
}

// networkCommand registers the machine with the fleet network and issues
// its credentials.
type networkCommand struct {
	machine events.MachineCreated
	rng     *rand.Rand
	log     *zap.Logger
}

func (c *networkCommand) Name() string { return "network-configuration" }

func (c *networkCommand) Execute(ctx context.Context) error {
	serial := serialNumber(c.machine.MachineID)
	apiKey := "api_" + randomToken(c.rng, 13)

	c.log.Info("configuring machine network",
		zap.String("machine", c.machine.Name),
		zap.String("serial", serial),
		zap.String("api_key_prefix", apiKey[:8]))

	if err := sleep(ctx, 120*time.Millisecond); err != nil {
		return err
	}
	c.log.Info("network configuration completed", zap.String("serial", serial))
	return nil
}

func (c *networkCommand) Undo(ctx context.Context) error {
	c.log.Info("removing network configuration", zap.String("machine", c.machine.Name))
	return nil
}

// serialNumber derives a fleet serial from the machine identifier.
func serialNumber(machineID string) string {
	id := machineID
	if len(id) > 8 {
		id = id[:8]
	}
	return "SM-" + strings.ToUpper(id)
}

const tokenAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func randomToken(rng *rand.Rand, length int) string {
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		b.WriteByte(tokenAlphabet[rng.Intn(len(tokenAlphabet))])
	}
	return b.String()
}

// maintenanceCommand books the recurring maintenance visits. The first one
// lands 30 days after installation, then monthly.
type maintenanceCommand struct {
	machine events.MachineCreated
	now     func() time.Time
	log     *zap.Logger
}

func (c *maintenanceCommand) Name() string { return "maintenance-schedule" }

func (c *maintenanceCommand) Execute(ctx context.Context) error {
	installed := c.now()
	first := installed.AddDate(0, 0, 30)

	c.log.Info("scheduling machine maintenance",
		zap.String("machine", c.machine.Name),
		zap.Time("installation_date", installed),
		zap.Time("first_maintenance", first),
		zap.String("interval", "monthly"))

	if err := sleep(ctx, 75*time.Millisecond); err != nil {
		return err
	}
	c.log.Info("maintenance schedule created", zap.String("machine", c.machine.Name))
	return nil
}

func (c *maintenanceCommand) Undo(ctx context.Context) error {
	c.log.Info("canceling maintenance schedule", zap.String("machine", c.machine.Name))
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
