package waterfall

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Cascade/internal/domain"
	"github.com/shaiso/Cascade/internal/mq"
)

func responseDelivery(stepID uuid.UUID, response string, counterRate int64) *mq.Delivery {
	return &mq.Delivery{
		Message: mq.Message{
			ID:   uuid.NewString(),
			Type: mq.MessageTypeTenderResponse,
			Payload: mq.TenderResponsePayload{
				StepID:      stepID,
				Response:    response,
				CounterRate: counterRate,
			},
			Timestamp: time.Now(),
		},
	}
}

func TestHandleTenderResponse(t *testing.T) {
	e, _, _ := newTestEngine(rankedCandidates(1))
	ctx := context.Background()

	run, err := e.StartWaterfall(ctx, startRequest(100000, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := e.handleTenderResponse(ctx, responseDelivery(run.CurrentStep.ID, ResponseAccepted, 0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	run, err = e.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.Status != domain.RunStatusAccepted {
		t.Errorf("expected ACCEPTED, got %s", run.Status)
	}
}

func TestHandleTenderResponse_UnknownStepNotRequeued(t *testing.T) {
	e, _, _ := newTestEngine(rankedCandidates(1))

	// Unknown step means the response can never apply; requeueing it
	// would just loop the message.
	err := e.handleTenderResponse(context.Background(), responseDelivery(uuid.New(), ResponseAccepted, 0))
	if err != nil {
		t.Errorf("unknown step should be dropped without error, got %v", err)
	}
}

func TestHandleTenderResponse_InvalidRateNotRequeued(t *testing.T) {
	e, _, _ := newTestEngine(rankedCandidates(1))
	ctx := context.Background()

	run, err := e.StartWaterfall(ctx, startRequest(100000, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = e.handleTenderResponse(ctx, responseDelivery(run.CurrentStep.ID, ResponseCountered, 0))
	if err != nil {
		t.Errorf("invalid counter rate should be dropped without error, got %v", err)
	}

	run, _ = e.GetRun(ctx, run.ID)
	if run.CurrentStep == nil || run.CurrentStep.Status != domain.StepStatusSent {
		t.Error("step must stay in flight after a dropped message")
	}
}
