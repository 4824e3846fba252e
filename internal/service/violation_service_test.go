package service

import (
	"errors"
	"sync"
	"symposium_backend/internal/model"
	"symposium_backend/internal/util"
	"testing"
	"time"
)

func TestDefaultRulesAutoSubmitOnThirdViolation(t *testing.T) {
	f := newFixture(t)
	p := f.addParticipant(t, "alice")
	f.addMCQs(t, f.round.ID, 3)
	a := f.start(t, p.ID, f.round.ID)

	for i, wantRemaining := range []int{1, 0} {
		res, err := f.violations.RecordViolation(a.ID, p.ID, model.ViolationTabSwitch)
		if err != nil {
			t.Fatalf("violation %d: %v", i+1, err)
		}
		if res.AutoSubmitted || res.ViolationCount != i+1 || res.WarningsRemaining != wantRemaining {
			t.Fatalf("violation %d: unexpected result %+v", i+1, res)
		}
	}

	f.clock.Advance(time.Minute)
	res, err := f.violations.RecordViolation(a.ID, p.ID, model.ViolationFullscreenExit)
	if err != nil {
		t.Fatalf("third violation: %v", err)
	}
	if !res.AutoSubmitted || res.WarningsRemaining != 0 || res.ViolationCount != 3 {
		t.Fatalf("expected auto submission, got %+v", res)
	}
	if res.Attempt.Status != model.AttemptAutoSubmitted || res.Attempt.FinalizeReason != model.FinalizeViolation {
		t.Fatalf("unexpected final state %s/%s", res.Attempt.Status, res.Attempt.FinalizeReason)
	}
	if res.Attempt.TotalScore == nil || *res.Attempt.TotalScore != 0 {
		t.Fatalf("auto submitted attempt must still be scored, got %v", res.Attempt.TotalScore)
	}

	if _, err := f.violations.RecordViolation(a.ID, p.ID, model.ViolationTabSwitch); !errors.Is(err, util.ErrAttemptAlreadyTerminal) {
		t.Fatalf("expected already terminal, got %v", err)
	}
	logs, _ := f.attempts.AttemptRepo.GetViolationLogs(a.ID)
	if len(logs) != 3 {
		t.Fatalf("expected 3 violation logs, got %d", len(logs))
	}
}

func TestViolationsWithoutAutoSubmitNeverFinalize(t *testing.T) {
	f := newFixture(t)
	f.addRoundRules(t, f.round.ID, model.RuleSet{
		NoTabSwitch:           boolPtr(true),
		AutoSubmitOnViolation: boolPtr(false),
	})
	p := f.addParticipant(t, "alice")
	a := f.start(t, p.ID, f.round.ID)

	var res *ViolationResult
	for i := 0; i < 3; i++ {
		var err error
		res, err = f.violations.RecordViolation(a.ID, p.ID, model.ViolationTabSwitch)
		if err != nil {
			t.Fatalf("violation %d: %v", i+1, err)
		}
	}
	if res.Attempt.Status != model.AttemptInProgress || res.AutoSubmitted {
		t.Fatalf("attempt must stay live, got %s", res.Attempt.Status)
	}
	if res.ViolationCount != 3 || res.WarningsRemaining != -1 {
		t.Fatalf("expected count 3 with unlimited warnings, got %d/%d", res.ViolationCount, res.WarningsRemaining)
	}

	stored, _ := f.attempts.AttemptRepo.FindByID(a.ID)
	if stored.ViolationCount != 3 {
		t.Fatalf("count not persisted, got %d", stored.ViolationCount)
	}
}

func TestDisabledKindIsLoggedButNotCounted(t *testing.T) {
	f := newFixture(t)
	f.addRoundRules(t, f.round.ID, model.RuleSet{ForceFullscreen: boolPtr(false)})
	p := f.addParticipant(t, "alice")
	a := f.start(t, p.ID, f.round.ID)

	for i := 0; i < 5; i++ {
		res, err := f.violations.RecordViolation(a.ID, p.ID, model.ViolationFullscreenExit)
		if err != nil {
			t.Fatalf("violation: %v", err)
		}
		if res.Counted || res.ViolationCount != 0 || res.AutoSubmitted {
			t.Fatalf("disabled kind must not count, got %+v", res)
		}
	}

	logs, _ := f.attempts.AttemptRepo.GetViolationLogs(a.ID)
	if len(logs) != 5 {
		t.Fatalf("expected every signal logged, got %d", len(logs))
	}
	for _, l := range logs {
		if l.Counted {
			t.Fatal("log entry wrongly marked as counted")
		}
	}
}

func TestRulesAreSnapshottedAtStart(t *testing.T) {
	f := newFixture(t)
	p := f.addParticipant(t, "alice")
	a := f.start(t, p.ID, f.round.ID)

	// 开始后修改规则不影响已开始的尝试
	f.addRoundRules(t, f.round.ID, model.RuleSet{NoTabSwitch: boolPtr(false)})

	res, err := f.violations.RecordViolation(a.ID, p.ID, model.ViolationTabSwitch)
	if err != nil {
		t.Fatalf("violation: %v", err)
	}
	if !res.Counted {
		t.Fatal("snapshotted rules should still count tab switches")
	}
}

func TestRecordViolationErrors(t *testing.T) {
	f := newFixture(t)
	p := f.addParticipant(t, "alice")
	other := f.addParticipant(t, "mallory")
	a := f.start(t, p.ID, f.round.ID)

	if _, err := f.violations.RecordViolation(a.ID, p.ID, "copy_paste"); !errors.Is(err, util.ErrInvalidViolationKind) {
		t.Fatalf("expected invalid kind, got %v", err)
	}
	if _, err := f.violations.RecordViolation(a.ID, other.ID, model.ViolationTabSwitch); !errors.Is(err, util.ErrAttemptForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := f.violations.RecordViolation("nope", p.ID, model.ViolationTabSwitch); !errors.Is(err, util.ErrAttemptNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	f.clock.Advance(45 * time.Minute)
	if _, err := f.violations.RecordViolation(a.ID, p.ID, model.ViolationTabSwitch); !errors.Is(err, util.ErrAttemptAlreadyTerminal) {
		t.Fatalf("expected expired attempt to be terminal, got %v", err)
	}
	stored, _ := f.attempts.AttemptRepo.FindByID(a.ID)
	if stored.Status != model.AttemptCompleted || stored.FinalizeReason != model.FinalizeDeadline {
		t.Fatalf("expired attempt should be closed by deadline, got %s/%s", stored.Status, stored.FinalizeReason)
	}
	if stored.ViolationCount != 0 {
		t.Fatal("violation after the deadline must not count")
	}
}

func TestConcurrentViolationsAutoSubmitOnce(t *testing.T) {
	f := newFixture(t)
	p := f.addParticipant(t, "alice")
	a := f.start(t, p.ID, f.round.ID)
	sub := f.broker.Subscribe(RoundTopic(f.round.ID))

	const n = 10
	results := make([]*ViolationResult, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.violations.RecordViolation(a.ID, p.ID, model.ViolationTabSwitch)
		}(i)
	}
	wg.Wait()

	accepted, autoSubmitted := 0, 0
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			if !errors.Is(errs[i], util.ErrAttemptAlreadyTerminal) {
				t.Fatalf("violation %d: unexpected error %v", i, errs[i])
			}
			continue
		}
		accepted++
		if results[i].AutoSubmitted {
			autoSubmitted++
		}
	}
	if accepted != 3 || autoSubmitted != 1 {
		t.Fatalf("expected 3 accepted signals and 1 auto submission, got %d/%d", accepted, autoSubmitted)
	}

	stored, _ := f.attempts.AttemptRepo.FindByID(a.ID)
	if stored.Status != model.AttemptAutoSubmitted || stored.ViolationCount != 3 {
		t.Fatalf("expected auto_submitted with count 3, got %s/%d", stored.Status, stored.ViolationCount)
	}

	finalized := 0
	for _, evt := range drain(sub) {
		if evt.Type == EventAttemptFinalized {
			finalized++
		}
	}
	if finalized != 1 {
		t.Fatalf("expected one attempt_finalized event, got %d", finalized)
	}
}
