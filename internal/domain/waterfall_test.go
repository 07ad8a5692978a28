package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

// --- Status Tests ---

func TestRunStatus_IsTerminal(t *testing.T) {
	terminal := []RunStatus{RunStatusAccepted, RunStatusExhausted, RunStatusCancelled}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}

	open := []RunStatus{RunStatusPending, RunStatusRunning}
	for _, s := range open {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestStepStatus_CounteredIsNotTerminal(t *testing.T) {
	if StepStatusCountered.IsTerminal() {
		t.Error("COUNTERED step must stay resolvable")
	}
	if !StepStatusExpired.IsTerminal() {
		t.Error("EXPIRED step must be terminal")
	}
}

// --- Step Tests ---

func TestStep_Resolve(t *testing.T) {
	step := NewStep(uuid.New(), 0, "carrier-1", "Acme Freight", 100000, 30*time.Minute)

	if step.Status != StepStatusSent {
		t.Fatalf("new step should be SENT, got %s", step.Status)
	}
	if step.IsResolved() {
		t.Fatal("new step should not be resolved")
	}

	if !step.Resolve(StepStatusAccepted, "looks good") {
		t.Fatal("first resolution should succeed")
	}
	if step.Status != StepStatusAccepted {
		t.Errorf("expected ACCEPTED, got %s", step.Status)
	}
	if step.ResolvedAt == nil {
		t.Error("resolved_at should be set")
	}
	if step.Notes != "looks good" {
		t.Errorf("unexpected notes: %q", step.Notes)
	}
}

func TestStep_ResolveIsFirstWins(t *testing.T) {
	step := NewStep(uuid.New(), 0, "carrier-1", "", 100000, 30*time.Minute)

	if !step.Resolve(StepStatusDeclined, "too cheap") {
		t.Fatal("first resolution should succeed")
	}
	if step.Resolve(StepStatusExpired, "no response before deadline") {
		t.Error("second resolution should be a no-op")
	}
	if step.Status != StepStatusDeclined {
		t.Errorf("status changed by losing resolution: %s", step.Status)
	}
	if step.Notes != "too cheap" {
		t.Errorf("notes changed by losing resolution: %q", step.Notes)
	}
}

func TestStep_Clone(t *testing.T) {
	step := NewStep(uuid.New(), 0, "carrier-1", "", 100000, 30*time.Minute)
	step.Counter = NewCounterOffer(step.ID, 110000, "fuel surcharge")

	cp := step.Clone()
	cp.Counter.MarkRejected()
	cp.Resolve(StepStatusDeclined, "")

	if step.IsResolved() {
		t.Error("resolving the clone should not touch the original")
	}
	if step.Counter.Status != CounterStatusPending {
		t.Error("clone shares counter-offer with the original")
	}
}

// --- Run Tests ---

func newTestRun() *WaterfallRun {
	return &WaterfallRun{
		ID:         uuid.New(),
		ShipmentID: "SHIP-1001",
		Status:     RunStatusRunning,
		BaseRate:   100000,
		CurrentRate: 100000,
		TotalCandidates: 2,
		Candidates: []CarrierCandidate{
			{CarrierID: "carrier-1"},
			{CarrierID: "carrier-2"},
		},
		Config:    DefaultConfig(),
		StartedAt: time.Now(),
	}
}

func TestRun_MarkAccepted(t *testing.T) {
	run := newTestRun()

	run.MarkAccepted("carrier-2", 105000)

	if run.Status != RunStatusAccepted {
		t.Errorf("expected ACCEPTED, got %s", run.Status)
	}
	if run.WinningCarrierID != "carrier-2" {
		t.Errorf("unexpected winner: %s", run.WinningCarrierID)
	}
	if run.CurrentRate != 105000 {
		t.Errorf("expected winning rate 105000, got %d", run.CurrentRate)
	}
	if run.CompletedAt == nil {
		t.Error("completed_at should be set")
	}
	if !run.IsFinished() {
		t.Error("accepted run should be finished")
	}
}

func TestRun_AppendStep(t *testing.T) {
	run := newTestRun()
	step := NewStep(run.ID, 0, "carrier-1", "", 100000, time.Minute)
	step.Resolve(StepStatusDeclined, "")
	run.CurrentStep = step

	run.AppendStep(*step)

	if run.CurrentStep != nil {
		t.Error("current step should be cleared after append")
	}
	if len(run.History) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(run.History))
	}
	if run.History[0].ID != step.ID {
		t.Error("history entry does not match the appended step")
	}
}

func TestRun_PendingCounter(t *testing.T) {
	run := newTestRun()

	if run.PendingCounter() != nil {
		t.Error("run without a step should have no pending counter")
	}

	step := NewStep(run.ID, 0, "carrier-1", "", 100000, time.Minute)
	run.CurrentStep = step

	if run.PendingCounter() != nil {
		t.Error("SENT step should have no pending counter")
	}

	step.Counter = NewCounterOffer(step.ID, 110000, "")
	step.Status = StepStatusCountered

	if run.PendingCounter() == nil {
		t.Fatal("expected a pending counter")
	}

	step.Counter.MarkRejected()

	if run.PendingCounter() != nil {
		t.Error("resolved counter should not be reported as pending")
	}
}

func TestRun_CloneIsDeep(t *testing.T) {
	run := newTestRun()
	step := NewStep(run.ID, 0, "carrier-1", "", 100000, time.Minute)
	step.Resolve(StepStatusDeclined, "")
	run.History = append(run.History, *step)
	run.CurrentStep = NewStep(run.ID, 1, "carrier-2", "", 105000, time.Minute)

	cp := run.Clone()
	cp.MarkCancelled("dispatcher changed plans")
	cp.History[0].Notes = "mutated"
	cp.CurrentStep.Resolve(StepStatusExpired, "")
	cp.Candidates[0].CarrierID = "mutated"

	if run.Status != RunStatusRunning {
		t.Error("cancelling the clone should not touch the original")
	}
	if run.History[0].Notes == "mutated" {
		t.Error("clone shares history with the original")
	}
	if run.CurrentStep.IsResolved() {
		t.Error("clone shares current step with the original")
	}
	if run.Candidates[0].CarrierID == "mutated" {
		t.Error("clone shares candidates with the original")
	}
}
