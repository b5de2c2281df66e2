package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/traintrack/internal/client/models"
)

// Plans lists routines, including soft-deleted ones, marking their state.
func (a *App) Plans(ctx context.Context) error {
	plans, err := a.training.Plans(ctx, true)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	if len(plans) == 0 {
		printlnFn("No plans yet. Use 'newplan' to create one.")
		return nil
	}

	for _, p := range plans {
		mark := ""
		if p.Favorite {
			mark += " *"
		}
		if p.ArchivedAt != nil {
			mark += " [archived]"
		}
		if p.SyncStatus.Dirty() {
			mark += " [pending sync]"
		}
		printlnFn(fmt.Sprintf("%d: %s (%d days)%s", p.ID, p.Name, len(p.Days), mark))
	}
	return nil
}

// NewPlan creates a routine interactively: a name, a description and a
// list of day names. Exercises are added to days via plan editing on
// other clients; the CLI keeps creation minimal.
func (a *App) NewPlan(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Plan name", os.Stdout)
	if err != nil {
		return err
	}
	if name == "" {
		printlnFn("Plan name cannot be empty")
		return nil
	}

	description, err := getSimpleText(a.reader, "Description (optional)", os.Stdout)
	if err != nil {
		return err
	}

	var days []models.PlanDay
	for {
		dayName, err := getSimpleText(a.reader, "Day name (empty to finish)", os.Stdout)
		if err != nil {
			return err
		}
		if dayName == "" {
			break
		}
		days = append(days, models.PlanDay{Name: dayName})
	}

	id, err := a.training.CreatePlan(ctx, &models.Plan{
		Name:        name,
		Description: description,
		Days:        days,
	})
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	printlnFn(fmt.Sprintf("Created plan %d, it will sync on the next pass", id))
	return nil
}

// ArchivePlan soft-deletes a routine by id.
func (a *App) ArchivePlan(ctx context.Context) error {
	id, err := GetInt(a.reader, "Plan id to archive", os.Stdout)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	if err := a.training.ArchivePlan(ctx, id); err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	printlnFn("Archived")
	return nil
}

// RestorePlan undoes a soft delete.
func (a *App) RestorePlan(ctx context.Context) error {
	id, err := GetInt(a.reader, "Plan id to restore", os.Stdout)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	if err := a.training.RestorePlan(ctx, id); err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	printlnFn("Restored")
	return nil
}

// Exercises lists the exercise catalog.
func (a *App) Exercises(ctx context.Context) error {
	items, err := a.training.ReferenceItems(ctx)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	if len(items) == 0 {
		printlnFn("Catalog is empty; it fills in after the first login with a reachable server.")
		return nil
	}
	for _, it := range items {
		extra := it.MuscleGroup
		if it.Equipment != "" {
			extra += ", " + it.Equipment
		}
		printlnFn(fmt.Sprintf("%d: %s (%s)", it.ID, it.Name, extra))
	}
	return nil
}
