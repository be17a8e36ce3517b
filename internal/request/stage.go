// Package request fulfills drink requests through an ordered processing
// pipeline. Each stage must succeed before the next one runs; a failed
// stage aborts the rest of the pipeline. Completed stages are not
// compensated, recovery is left to the operators.
package request

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/sipeat/sipeat-events/pkg/events"
	"go.uber.org/zap"
)

// Stage is one step of the request pipeline.
type Stage interface {
	Name() string
	Handle(ctx context.Context, request events.RequestCreated) error
}

// Failure rates observed in the fleet, used to model the external systems
// each stage talks to.
const (
	outOfStockRate     = 0.10
	paymentFailureRate = 0.05
	dispenseFaultRate  = 0.02
)

const (
	basePrice      = 2.50
	premiumSurplus = 0.50
)

var premiumBrands = []string{"fiuzetea", "nectar"}

// inventoryStage confirms the requested drink is stocked at the machine.
type inventoryStage struct {
	rng      *rand.Rand
	failRate float64
	log      *zap.Logger
}

func (s *inventoryStage) Name() string { return "inventory-validation" }

func (s *inventoryStage) Handle(ctx context.Context, request events.RequestCreated) error {
	s.log.Info("validating inventory",
		zap.String("drink", request.DrinkName),
		zap.String("machine", request.MachineName))

	if s.rng.Float64() < s.failRate {
		s.log.Warn("drink out of stock", zap.String("drink", request.DrinkName))
		return fmt.Errorf("%s is not available at this machine", request.DrinkName)
	}

	if err := sleep(ctx, 100*time.Millisecond); err != nil {
		return err
	}
	s.log.Info("drink available", zap.String("drink", request.DrinkName))
	return nil
}

// paymentStage charges the customer for the drink.
type paymentStage struct {
	rng      *rand.Rand
	failRate float64
	log      *zap.Logger
}

func (s *paymentStage) Name() string { return "payment" }

func (s *paymentStage) Handle(ctx context.Context, request events.RequestCreated) error {
	s.log.Info("processing payment", zap.String("drink", request.DrinkName))

	if s.rng.Float64() < s.failRate {
		return errors.New("payment processing failed")
	}

	if err := sleep(ctx, 150*time.Millisecond); err != nil {
		return err
	}
	s.log.Info("payment processed", zap.Float64("amount", Price(request.DrinkName)))
	return nil
}

// Price returns the charge for a drink. Premium brands carry a surplus on
// top of the base price.
func Price(drinkName string) float64 {
	name := strings.ToLower(drinkName)
	for _, brand := range premiumBrands {
		if strings.Contains(name, brand) {
			return basePrice + premiumSurplus
		}
	}
	return basePrice
}

// dispenseStage triggers the physical dispense at the machine.
type dispenseStage struct {
	rng      *rand.Rand
	failRate float64
	log      *zap.Logger
}

func (s *dispenseStage) Name() string { return "dispense" }

func (s *dispenseStage) Handle(ctx context.Context, request events.RequestCreated) error {
	s.log.Info("dispensing drink",
		zap.String("drink", request.DrinkName),
		zap.String("machine", request.MachineName))

	if s.rng.Float64() < s.failRate {
		s.log.Error("machine malfunction, drink not dispensed",
			zap.String("machine_id", request.MachineID))
		return errors.New("machine failed to dispense drink")
	}

	if err := sleep(ctx, 200*time.Millisecond); err != nil {
		return err
	}
	s.log.Info("drink dispensed", zap.String("drink", request.DrinkName))
	return nil
}

// notificationStage tells the customer their drink is ready.
type notificationStage struct {
	log *zap.Logger
}

func (s *notificationStage) Name() string { return "customer-notification" }

func (s *notificationStage) Handle(ctx context.Context, request events.RequestCreated) error {
	s.log.Info("notifying customer",
		zap.String("customer", request.CustomerName),
		zap.String("message", fmt.Sprintf("Your %s is ready for pickup!", request.DrinkName)))

	if err := sleep(ctx, 50*time.Millisecond); err != nil {
		return err
	}
	s.log.Info("customer notification sent", zap.String("customer", request.CustomerName))
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
