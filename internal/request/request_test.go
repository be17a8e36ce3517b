package request

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/sipeat/sipeat-events/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordedNotification struct {
	kind    events.Kind
	success bool
	cause   error
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []recordedNotification
}

func (n *fakeNotifier) Publish(ctx context.Context, kind events.Kind, original json.RawMessage, success bool, cause error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, recordedNotification{kind: kind, success: success, cause: cause})
}

func (n *fakeNotifier) recorded() []recordedNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]recordedNotification(nil), n.calls...)
}

type scriptedStage struct {
	name  string
	err   error
	calls int
}

func (s *scriptedStage) Name() string { return s.name }

func (s *scriptedStage) Handle(ctx context.Context, request events.RequestCreated) error {
	s.calls++
	return s.err
}

func testRequest() events.RequestCreated {
	return events.RequestCreated{
		RequestID:    "r-1",
		CustomerName: "Noa",
		DrinkName:    "Water",
		MachineID:    "m-1",
		MachineName:  "Office Lobby",
	}
}

func TestPipelineRunsStagesInOrder(t *testing.T) {
	first := &scriptedStage{name: "first"}
	second := &scriptedStage{name: "second"}

	p := newPipeline(zap.NewNop(), first, second)
	require.NoError(t, p.Process(context.Background(), testRequest()))

	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestPipelineAbortsOnFirstFailure(t *testing.T) {
	first := &scriptedStage{name: "inventory"}
	failing := &scriptedStage{name: "payment", err: errors.New("card declined")}
	skipped := &scriptedStage{name: "dispense"}

	p := newPipeline(zap.NewNop(), first, failing, skipped)
	err := p.Process(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payment")
	assert.Contains(t, err.Error(), "card declined")

	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 0, skipped.calls)
}

func TestPrice(t *testing.T) {
	tests := []struct {
		drink string
		want  float64
	}{
		{drink: "Water", want: 2.50},
		{drink: "Coca-Cola", want: 2.50},
		{drink: "Fiuzetea – Peach", want: 3.00},
		{drink: "Nectar – Apple", want: 3.00},
		{drink: "NECTAR – Grape", want: 3.00},
	}

	for _, tt := range tests {
		t.Run(tt.drink, func(t *testing.T) {
			assert.InDelta(t, tt.want, Price(tt.drink), 0.001)
		})
	}
}

func TestInventoryStageOutOfStock(t *testing.T) {
	stage := &inventoryStage{rng: rand.New(rand.NewSource(1)), failRate: 1, log: zap.NewNop()}

	err := stage.Handle(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not available")
}

func TestInventoryStageAvailable(t *testing.T) {
	stage := &inventoryStage{rng: rand.New(rand.NewSource(1)), failRate: 0, log: zap.NewNop()}
	require.NoError(t, stage.Handle(context.Background(), testRequest()))
}

func TestPaymentStageFailure(t *testing.T) {
	stage := &paymentStage{rng: rand.New(rand.NewSource(1)), failRate: 1, log: zap.NewNop()}

	err := stage.Handle(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payment")
}

func TestDispenseStageMalfunction(t *testing.T) {
	stage := &dispenseStage{rng: rand.New(rand.NewSource(1)), failRate: 1, log: zap.NewNop()}

	err := stage.Handle(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dispense")
}

func newRequestEnvelope(t *testing.T, request events.RequestCreated) events.Envelope {
	t.Helper()
	envelope, err := events.New(events.KindRequestCreated, "sipeat-website", request)
	require.NoError(t, err)
	return envelope
}

func newTestHandler(notifier *fakeNotifier, stages ...Stage) *Handler {
	h := NewHandler(notifier, zap.NewNop())
	h.stages = stages
	return h
}

func TestHandleSuccessfulRequest(t *testing.T) {
	notifier := &fakeNotifier{}
	inventory := &scriptedStage{name: "inventory"}
	payment := &scriptedStage{name: "payment"}
	h := newTestHandler(notifier, inventory, payment)

	envelope := newRequestEnvelope(t, testRequest())
	require.NoError(t, h.Handle(context.Background(), envelope))

	assert.Equal(t, 1, inventory.calls)
	assert.Equal(t, 1, payment.calls)

	calls := notifier.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, events.KindRequestCreated, calls[0].kind)
	assert.True(t, calls[0].success)
}

func TestHandleAbortedRequestNotifiesFailure(t *testing.T) {
	notifier := &fakeNotifier{}
	inventory := &scriptedStage{name: "inventory", err: errors.New("Nectar – Apple is not available at this machine")}
	payment := &scriptedStage{name: "payment"}
	dispense := &scriptedStage{name: "dispense"}
	h := newTestHandler(notifier, inventory, payment, dispense)

	request := testRequest()
	request.DrinkName = "Nectar – Apple"
	err := h.Handle(context.Background(), newRequestEnvelope(t, request))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not available")

	// Stages after the failed one never run. Nothing is compensated.
	assert.Equal(t, 0, payment.calls)
	assert.Equal(t, 0, dispense.calls)

	calls := notifier.recorded()
	require.Len(t, calls, 1)
	assert.False(t, calls[0].success)
	assert.Error(t, calls[0].cause)
}

func TestHandleMalformedPayloadStillNotifies(t *testing.T) {
	notifier := &fakeNotifier{}
	stage := &scriptedStage{name: "inventory"}
	h := newTestHandler(notifier, stage)

	envelope := newRequestEnvelope(t, testRequest())
	envelope.Data = json.RawMessage(`[]`)

	require.Error(t, h.Handle(context.Background(), envelope))
	assert.Equal(t, 0, stage.calls)

	calls := notifier.recorded()
	require.Len(t, calls, 1)
	assert.False(t, calls[0].success)
}

func TestFullPipelineWithForcedSuccess(t *testing.T) {
	notifier := &fakeNotifier{}
	rng := rand.New(rand.NewSource(7))
	log := zap.NewNop()
	h := newTestHandler(notifier,
		&inventoryStage{rng: rng, failRate: 0, log: log},
		&paymentStage{rng: rng, failRate: 0, log: log},
		&dispenseStage{rng: rng, failRate: 0, log: log},
		&notificationStage{log: log},
	)

	request := testRequest()
	request.DrinkName = "Fiuzetea – Peach"
	require.NoError(t, h.Handle(context.Background(), newRequestEnvelope(t, request)))

	calls := notifier.recorded()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].success)
}
