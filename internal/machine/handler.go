package machine

import (
	"context"
	"math/rand"
	"time"

	"github.com/sipeat/sipeat-events/internal/discord"
	"github.com/sipeat/sipeat-events/pkg/events"
	"go.uber.org/zap"
)

// Handler processes machine.created events by running the full setup
// workflow. One side-channel notification is published per event,
// whether setup succeeded or was rolled back.
type Handler struct {
	notifier discord.Notifier
	log      *zap.Logger

	rng *rand.Rand
	now func() time.Time
}

func NewHandler(notifier discord.Notifier, log *zap.Logger) *Handler {
	return &Handler{
		notifier: notifier,
		log:      log,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
}

func (h *Handler) Kind() events.Kind { return events.KindMachineCreated }

func (h *Handler) Handle(ctx context.Context, envelope events.Envelope) error {
	machine, err := events.Decode[events.MachineCreated](envelope)
	if err != nil {
		h.notifier.Publish(ctx, envelope.Type, envelope.Data, false, err)
		return err
	}

	h.log.Info("processing new machine",
		zap.String("machine_id", machine.MachineID),
		zap.String("name", machine.Name),
		zap.String("city", machine.City))

	err = h.setup(ctx, machine)
	h.notifier.Publish(ctx, envelope.Type, envelope.Data, err == nil, err)
	if err != nil {
		h.log.Error("machine setup failed",
			zap.String("machine_id", machine.MachineID),
			zap.Error(err))
		return err
	}

	h.log.Info("machine setup completed, machine is operational",
		zap.String("machine_id", machine.MachineID),
		zap.String("location", location(machine)))
	return nil
}

func (h *Handler) setup(ctx context.Context, machine events.MachineCreated) error {
	inv := newInvoker(h.log, h.setupCommands(machine)...)
	return inv.ExecuteAll(ctx)
}

func (h *Handler) setupCommands(machine events.MachineCreated) []Command {
	return []Command{
		&locationCommand{machine: machine, log: h.log},
		&inventoryCommand{machine: machine, log: h.log},
		&networkCommand{machine: machine, rng: h.rng, log: h.log},
		&maintenanceCommand{machine: machine, now: h.now, log: h.log},
	}
}

func location(machine events.MachineCreated) string {
	loc := machine.City + ", " + machine.Country
	if machine.Street != nil && *machine.Street != "" {
		loc = *machine.Street + ", " + loc
	}
	return loc
}
