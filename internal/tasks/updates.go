package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	QueuePrompts Phase = iota
	Recommend
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case QueuePrompts:
		return "queue_prompts"
	case Recommend:
		return "recommend"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func queuedUpdate(total, workers int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   QueuePrompts,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Queued %d prompts across %d workers...", total, workers),
	}
}

func promptCompletedUpdate(step, total int, res PromptResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Recommend,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d songs)", step, total, res.Prompt, res.Songs),
		Data:    res,
	}
}

func promptFailedUpdate(step, total int, res PromptResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Recommend,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %s", step, total, res.Prompt, res.Error),
		Data:    res,
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing manifest to %s...", path),
	}
}
