package services

import (
	"testing"

	"join-project/backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func existingSubtasks(taskID primitive.ObjectID, titles ...string) []models.Subtask {
	subs := make([]models.Subtask, 0, len(titles))
	for _, title := range titles {
		subs = append(subs, models.Subtask{ID: primitive.NewObjectID(), Title: title, TaskID: taskID})
	}
	return subs
}

func TestPlanSubtaskReconcile_OmittedIDsAreDeleted(t *testing.T) {
	taskID := primitive.NewObjectID()
	existing := existingSubtasks(taskID, "keep", "drop one", "drop two")

	incoming := []models.SubtaskInput{
		{ID: &existing[0].ID, Status: boolPtr(true)},
	}

	plan := planSubtaskReconcile(taskID, existing, incoming)

	if len(plan.updates) != 1 || plan.updates[0].ID != existing[0].ID {
		t.Fatalf("Expected exactly the referenced subtask to be updated, got %+v", plan.updates)
	}
	if len(plan.creates) != 0 {
		t.Errorf("Expected no creates, got %d", len(plan.creates))
	}
	if len(plan.deletes) != 2 {
		t.Fatalf("Expected 2 deletes, got %d", len(plan.deletes))
	}
	if plan.deletes[0] != existing[1].ID || plan.deletes[1] != existing[2].ID {
		t.Errorf("Expected the two unreferenced subtasks to be deleted, got %v", plan.deletes)
	}
}

func TestPlanSubtaskReconcile_ItemsWithoutIDAreCreated(t *testing.T) {
	taskID := primitive.NewObjectID()
	existing := existingSubtasks(taskID, "old")

	incoming := []models.SubtaskInput{
		{ID: &existing[0].ID, Title: strPtr("renamed")},
		{Title: strPtr("brand new"), Status: boolPtr(true)},
	}

	plan := planSubtaskReconcile(taskID, existing, incoming)

	if len(plan.updates) != 1 {
		t.Fatalf("Expected 1 update, got %d", len(plan.updates))
	}
	if plan.updates[0].Title == nil || *plan.updates[0].Title != "renamed" {
		t.Errorf("Expected the matched item to carry the new title")
	}
	if len(plan.creates) != 1 {
		t.Fatalf("Expected 1 create, got %d", len(plan.creates))
	}
	created := plan.creates[0]
	if created.Title != "brand new" || !created.Status {
		t.Errorf("Unexpected created subtask: %+v", created)
	}
	if created.TaskID != taskID {
		t.Errorf("Created subtask must be owned by the task")
	}
	if len(plan.deletes) != 0 {
		t.Errorf("Expected no deletes, got %v", plan.deletes)
	}
}

func TestPlanSubtaskReconcile_UnknownIDBecomesCreate(t *testing.T) {
	taskID := primitive.NewObjectID()
	existing := existingSubtasks(taskID, "only")

	foreign := primitive.NewObjectID()
	incoming := []models.SubtaskInput{
		{ID: &existing[0].ID},
		{ID: &foreign, Title: strPtr("from another task")},
	}

	plan := planSubtaskReconcile(taskID, existing, incoming)

	if len(plan.creates) != 1 {
		t.Fatalf("Expected the unknown id to produce a create, got %d creates", len(plan.creates))
	}
	if plan.creates[0].ID == foreign {
		t.Errorf("A new subtask must get a fresh id, not reuse the submitted one")
	}
	if len(plan.deletes) != 0 {
		t.Errorf("Expected no deletes, got %v", plan.deletes)
	}
}

func TestPlanSubtaskReconcile_EmptyListDeletesEverything(t *testing.T) {
	taskID := primitive.NewObjectID()
	existing := existingSubtasks(taskID, "a", "b")

	plan := planSubtaskReconcile(taskID, existing, []models.SubtaskInput{})

	if len(plan.deletes) != 2 {
		t.Errorf("An empty subtasks list must delete every existing subtask, got %d deletes", len(plan.deletes))
	}
	if len(plan.updates) != 0 || len(plan.creates) != 0 {
		t.Errorf("Expected no updates or creates")
	}
}

func TestSubtasksForCreate(t *testing.T) {
	taskID := primitive.NewObjectID()

	subs, err := subtasksForCreate(taskID, []models.SubtaskInput{
		{Title: strPtr("one")},
		{Title: strPtr("two"), Status: boolPtr(true)},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("Expected 2 subtasks, got %d", len(subs))
	}
	for _, sub := range subs {
		if sub.TaskID != taskID {
			t.Errorf("Subtask %s not owned by the new task", sub.Title)
		}
	}
	if subs[0].Status || !subs[1].Status {
		t.Errorf("Status flags not carried over: %+v", subs)
	}

	if _, err := subtasksForCreate(taskID, []models.SubtaskInput{{}}); err == nil {
		t.Error("Expected a validation error for a subtask without title")
	}
}

func TestTaskScalarUpdates_PartialAndValidated(t *testing.T) {
	set, err := taskScalarUpdates(models.TaskUpdate{
		Title:   strPtr("new title"),
		Checked: boolPtr(true),
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(set) != 2 {
		t.Errorf("Expected only the present fields in the update, got %v", set)
	}
	if set["title"] != "new title" {
		t.Errorf("Title not applied: %v", set)
	}

	badStatus := models.TaskStatus("archived")
	_, err = taskScalarUpdates(models.TaskUpdate{Status: &badStatus})
	ve, ok := err.(*models.ValidationError)
	if !ok {
		t.Fatalf("Expected a validation error, got %v", err)
	}
	if _, found := ve.Fields["status"]; !found {
		t.Errorf("Expected a field error for status, got %v", ve.Fields)
	}
}

func TestDedupeIDs(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	out := dedupeIDs([]primitive.ObjectID{a, b, a, a, b})
	if len(out) != 2 || out[0] != a || out[1] != b {
		t.Errorf("Expected [a b], got %v", out)
	}
}
