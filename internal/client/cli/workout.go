package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/traintrack/internal/client/models"
)

// Start begins a training session, optionally tied to a plan day. The
// session becomes the current one for subsequent 'log' and 'finish'.
func (a *App) Start(ctx context.Context) error {
	planID, err := GetOptionalInt(a.reader, "Plan id (empty for a free session)", os.Stdout)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}

	var pid *int64
	var dayIndex *int
	if planID != nil {
		v := int64(*planID)
		pid = &v
		dayIndex, err = GetOptionalInt(a.reader, "Day index (empty for none)", os.Stdout)
		if err != nil {
			printlnFn("Error:", err.Error())
			return err
		}
	}

	id, err := a.training.StartActivity(ctx, pid, dayIndex)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	a.currentActivity = id
	printlnFn(fmt.Sprintf("Session %d started", id))
	return nil
}

// Log records one performed set in the current session.
func (a *App) Log(ctx context.Context) error {
	if a.currentActivity == 0 {
		printlnFn("No session in progress. Use 'start' first.")
		return nil
	}

	exerciseID, err := GetInt(a.reader, "Exercise id", os.Stdout)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	weight, err := GetOptionalFloat(a.reader, "Weight, kg (empty for bodyweight)", os.Stdout)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	reps, err := GetOptionalInt(a.reader, "Reps (empty for timed work)", os.Stdout)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	var duration *int
	if reps == nil {
		duration, err = GetOptionalInt(a.reader, "Duration, seconds", os.Stdout)
		if err != nil {
			printlnFn("Error:", err.Error())
			return err
		}
	}

	ordinal := 0
	if _, es, err := a.training.Activity(ctx, a.currentActivity); err == nil {
		ordinal = len(es)
	}

	id, err := a.training.LogEntry(ctx, &models.ActivityEntry{
		ActivityID:      a.currentActivity,
		ReferenceItemID: exerciseID,
		Ordinal:         ordinal,
		WeightKg:        weight,
		Reps:            reps,
		DurationSec:     duration,
	})
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	printlnFn(fmt.Sprintf("Logged set %d", id))
	return nil
}

// Finish completes the current session with an optional note and pushes
// it in the background.
func (a *App) Finish(ctx context.Context) error {
	if a.currentActivity == 0 {
		printlnFn("No session in progress.")
		return nil
	}
	note, err := getSimpleText(a.reader, "Session note (optional)", os.Stdout)
	if err != nil {
		return err
	}
	if err := a.training.FinishActivity(ctx, a.currentActivity, note); err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	printlnFn(fmt.Sprintf("Session %d finished", a.currentActivity))
	a.currentActivity = 0
	return nil
}

// History lists recent sessions, newest first.
func (a *App) History(ctx context.Context) error {
	acts, err := a.training.History(ctx, a.config.HistoryLimit)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	if len(acts) == 0 {
		printlnFn("No sessions yet.")
		return nil
	}
	for _, act := range acts {
		state := "in progress"
		if act.CompletedAt != nil {
			state = act.CompletedAt.Format("2006-01-02 15:04")
		}
		mark := ""
		if act.SyncStatus.Dirty() {
			mark = " [pending sync]"
		}
		printlnFn(fmt.Sprintf("%d: started %s, %s%s", act.LocalID, act.StartedAt.Format("2006-01-02 15:04"), state, mark))
	}
	return nil
}

// Show prints one session with its sets.
func (a *App) Show(ctx context.Context) error {
	id, err := GetInt(a.reader, "Session id", os.Stdout)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}

	act, es, err := a.training.Activity(ctx, id)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}

	printlnFn(fmt.Sprintf("Session %d, started %s", act.LocalID, act.StartedAt.Format("2006-01-02 15:04")))
	if act.Note != "" {
		printlnFn("Note:", act.Note)
	}
	for _, e := range es {
		detail := ""
		if e.WeightKg != nil {
			detail += fmt.Sprintf(" %.1fkg", *e.WeightKg)
		}
		if e.Reps != nil {
			detail += fmt.Sprintf(" x%d", *e.Reps)
		}
		if e.DurationSec != nil {
			detail += fmt.Sprintf(" %ds", *e.DurationSec)
		}
		printlnFn(fmt.Sprintf("  #%d exercise %d%s", e.Ordinal, e.ReferenceItemID, detail))
	}
	return nil
}

// Sync triggers an immediate pass and reports what it pushed.
func (a *App) Sync(ctx context.Context) error {
	report := a.engine.RunPass(ctx)
	switch {
	case !report.Ran:
		printlnFn("A sync pass is already running")
	case report.Offline:
		printlnFn("Server unreachable, changes stay queued")
	case report.Failed() > 0:
		printlnFn(fmt.Sprintf("Pushed %d items, %d failed (will retry)", len(report.Items)-report.Failed(), report.Failed()))
	default:
		printlnFn(fmt.Sprintf("Pushed %d items", len(report.Items)))
	}
	return nil
}
