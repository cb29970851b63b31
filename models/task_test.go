package models

import (
	"encoding/json"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSubtasksProgress_Empty(t *testing.T) {
	if got := SubtasksProgress(nil); got != 0 {
		t.Errorf("Expected progress 0 for no subtasks, got %d", got)
	}
}

func TestSubtasksProgress_Rounding(t *testing.T) {
	subtasks := []Subtask{
		{Status: true},
		{Status: true},
		{Status: true},
		{Status: false},
	}
	if got := SubtasksProgress(subtasks); got != 75 {
		t.Errorf("Expected progress 75 for 3 of 4 done, got %d", got)
	}

	third := []Subtask{{Status: true}, {Status: false}, {Status: false}}
	if got := SubtasksProgress(third); got != 33 {
		t.Errorf("Expected progress 33 for 1 of 3 done, got %d", got)
	}

	all := []Subtask{{Status: true}, {Status: true}}
	if got := SubtasksProgress(all); got != 100 {
		t.Errorf("Expected progress 100 for all done, got %d", got)
	}

	eighth := make([]Subtask, 8)
	eighth[0].Status = true
	if got := SubtasksProgress(eighth); got != 12 {
		t.Errorf("Expected progress 12 for 1 of 8 done (half rounds to even), got %d", got)
	}
}

func TestSortTasks_PriorityIsLexicographic(t *testing.T) {
	day := DateOf(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	tasks := []Task{
		{ID: primitive.NewObjectID(), Priority: PriorityMedium, CreatedAt: day},
		{ID: primitive.NewObjectID(), Priority: PriorityHigh, CreatedAt: day},
		{ID: primitive.NewObjectID(), Priority: PriorityLow, CreatedAt: day},
	}

	SortTasks(tasks)

	got := []TaskPriority{tasks[0].Priority, tasks[1].Priority, tasks[2].Priority}
	want := []TaskPriority{PriorityHigh, PriorityLow, PriorityMedium}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected priority order %v, got %v", want, got)
		}
	}
}

func TestSortTasks_NewestFirst(t *testing.T) {
	older := DateOf(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	newer := DateOf(time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))
	tasks := []Task{
		{ID: primitive.NewObjectID(), CreatedAt: older, Priority: PriorityHigh},
		{ID: primitive.NewObjectID(), CreatedAt: newer, Priority: PriorityMedium},
	}

	SortTasks(tasks)

	if !tasks[0].CreatedAt.Equal(newer.Time) {
		t.Errorf("Expected the newer task first, got created_at %s", tasks[0].CreatedAt)
	}
}

func TestSortTasks_IDBreaksTies(t *testing.T) {
	day := DateOf(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	tasks := []Task{
		{ID: b, CreatedAt: day, Priority: PriorityLow},
		{ID: a, CreatedAt: day, Priority: PriorityLow},
	}

	SortTasks(tasks)

	if tasks[0].ID.Hex() > tasks[1].ID.Hex() {
		t.Errorf("Expected ascending id order for equal date and priority")
	}
}

func TestTaskUpdate_AbsentSubtasksDecodeAsNil(t *testing.T) {
	var withoutKey TaskUpdate
	if err := json.Unmarshal([]byte(`{"title":"renamed"}`), &withoutKey); err != nil {
		t.Fatalf("Unexpected unmarshal error: %v", err)
	}
	if withoutKey.Subtasks != nil {
		t.Error("A payload without a subtasks key must decode to nil, it means leave the set alone")
	}

	var withEmptyList TaskUpdate
	if err := json.Unmarshal([]byte(`{"subtasks":[]}`), &withEmptyList); err != nil {
		t.Fatalf("Unexpected unmarshal error: %v", err)
	}
	if withEmptyList.Subtasks == nil {
		t.Fatal("An explicit empty subtasks list must decode non-nil, it means delete everything")
	}
	if len(*withEmptyList.Subtasks) != 0 {
		t.Errorf("Expected an empty list, got %d items", len(*withEmptyList.Subtasks))
	}
}

func TestValidEnums(t *testing.T) {
	if !ValidCategory(CategoryTechnicalTask) || ValidCategory("epic") {
		t.Error("Category validation is wrong")
	}
	if !ValidStatus(StatusAwaitFeedback) || ValidStatus("archived") {
		t.Error("Status validation is wrong")
	}
	if !ValidPriority(PriorityHigh) || ValidPriority("urgent") {
		t.Error("Priority validation is wrong")
	}
}
