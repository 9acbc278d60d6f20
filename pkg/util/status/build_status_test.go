package status

import (
	"testing"
	"time"

	"github.com/lockship/lock-to-image/pkg/api"
)

func TestNewFailureReason(t *testing.T) {
	failureReason := NewFailureReason(ReasonLockMissing, ReasonMessageLockMissing)

	if failureReason.Reason != ReasonLockMissing {
		t.Errorf("Expected reason to be: %s, got %s", ReasonLockMissing, failureReason.Reason)
	}

	if failureReason.Message != ReasonMessageLockMissing {
		t.Errorf("Expected message reason to be: %s, got %s", ReasonMessageLockMissing, failureReason.Message)
	}
}

func TestRecordStageAndStepInfoNewStage(t *testing.T) {
	stages := []api.StageInfo{}
	start := time.Now()
	stages = api.RecordStageAndStepInfo(stages, api.StageValidate, api.StepReadManifest, start, start.Add(time.Second))

	if len(stages) != 1 {
		t.Fatalf("expected 1 stage, got %d", len(stages))
	}
	if stages[0].Name != api.StageValidate {
		t.Errorf("unexpected stage name %s", stages[0].Name)
	}
	if len(stages[0].Steps) != 1 || stages[0].Steps[0].Name != api.StepReadManifest {
		t.Errorf("unexpected steps %#v", stages[0].Steps)
	}
}

func TestRecordStageAndStepInfoExistingStage(t *testing.T) {
	start := time.Now()
	stages := []api.StageInfo{}
	stages = api.RecordStageAndStepInfo(stages, api.StageValidate, api.StepReadManifest, start, start.Add(time.Second))
	stages = api.RecordStageAndStepInfo(stages, api.StageValidate, api.StepReadLock, start.Add(time.Second), start.Add(2*time.Second))

	if len(stages) != 1 {
		t.Fatalf("expected steps to be appended to the existing stage, got %d stages", len(stages))
	}
	if len(stages[0].Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(stages[0].Steps))
	}
	if stages[0].Duration != 2*time.Second {
		t.Errorf("expected stage duration to be extended, got %s", stages[0].Duration)
	}
}
