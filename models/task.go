package models

import (
	"math"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskCategory string

const (
	CategoryUserStory     TaskCategory = "user_story"
	CategoryTechnicalTask TaskCategory = "technical_task"
)

type TaskStatus string

const (
	StatusTodo          TaskStatus = "todo"
	StatusInProgress    TaskStatus = "in_progress"
	StatusAwaitFeedback TaskStatus = "await_feedback"
	StatusDone          TaskStatus = "done"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

func ValidCategory(c TaskCategory) bool {
	return c == CategoryUserStory || c == CategoryTechnicalTask
}

func ValidStatus(s TaskStatus) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusAwaitFeedback, StatusDone:
		return true
	}
	return false
}

func ValidPriority(p TaskPriority) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Task is the stored task document. Members hold bare user ids; the read
// shape expands them into full profiles (see TaskDetail).
type Task struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title       string               `bson:"title" json:"title"`
	Category    TaskCategory         `bson:"category" json:"category"`
	Description string               `bson:"description" json:"description"`
	Status      TaskStatus           `bson:"status" json:"status"`
	Color       string               `bson:"color" json:"color"`
	Priority    TaskPriority         `bson:"priority" json:"priority"`
	Members     []primitive.ObjectID `bson:"members" json:"members"`
	CreatedAt   Date                 `bson:"createdAt" json:"created_at"`
	DueDate     Date                 `bson:"dueDate" json:"due_date"`
	Checked     bool                 `bson:"checked" json:"checked"`
}

// Subtask has its own identity so task payloads can address it for partial
// updates. The owning task id is internal and never serialized.
type Subtask struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title  string             `bson:"title" json:"title"`
	Status bool               `bson:"status" json:"status"`
	TaskID primitive.ObjectID `bson:"taskId" json:"-"`
}

// TaskDetail is the read representation of a task: members expanded into
// profile objects, the current subtask set and the derived progress.
type TaskDetail struct {
	ID               primitive.ObjectID `json:"id"`
	Title            string             `json:"title"`
	Category         TaskCategory       `json:"category"`
	Description      string             `json:"description"`
	Status           TaskStatus         `json:"status"`
	Color            string             `json:"color"`
	Priority         TaskPriority       `json:"priority"`
	Members          []Profile          `json:"members"`
	CreatedAt        Date               `json:"created_at"`
	DueDate          Date               `json:"due_date"`
	Checked          bool               `json:"checked"`
	Subtasks         []Subtask          `json:"subtasks"`
	SubtasksProgress int                `json:"subtasks_progress"`
}

// SubtaskInput is one nested subtask item in a task payload. An id that
// matches an existing subtask of the task claims it for update; anything
// else creates a new subtask.
type SubtaskInput struct {
	ID     *primitive.ObjectID `json:"id"`
	Title  *string             `json:"title"`
	Status *bool               `json:"status"`
}

// TaskCreate is the POST /tasks payload.
type TaskCreate struct {
	Title       string               `json:"title"`
	Category    TaskCategory         `json:"category"`
	Description string               `json:"description"`
	Status      TaskStatus           `json:"status"`
	Color       string               `json:"color"`
	Priority    TaskPriority         `json:"priority"`
	DueDate     *Date                `json:"due_date"`
	Checked     bool                 `json:"checked"`
	Members     []primitive.ObjectID `json:"members"`
	Subtasks    []SubtaskInput       `json:"subtasks"`
}

// TaskUpdate is the partial-update payload. Only non-nil fields are
// applied. Members present replaces the whole member set; Subtasks present
// reconciles the collection by id, and omitting an existing subtask's id
// deletes that subtask.
type TaskUpdate struct {
	Title       *string               `json:"title"`
	Category    *TaskCategory         `json:"category"`
	Description *string               `json:"description"`
	Status      *TaskStatus           `json:"status"`
	Color       *string               `json:"color"`
	Priority    *TaskPriority         `json:"priority"`
	DueDate     *Date                 `json:"due_date"`
	Checked     *bool                 `json:"checked"`
	Members     *[]primitive.ObjectID `json:"members"`
	Subtasks    *[]SubtaskInput       `json:"subtasks"`
}

// SubtaskCreate is the standalone POST /subtask payload; Task carries the
// owning task id.
type SubtaskCreate struct {
	Task   string `json:"task"`
	Title  string `json:"title"`
	Status bool   `json:"status"`
}

// SubtaskUpdate is the standalone partial-update payload for a subtask.
type SubtaskUpdate struct {
	Title  *string `json:"title"`
	Status *bool   `json:"status"`
}

// SubtasksProgress computes the done percentage of a subtask set: 0 with no
// subtasks, otherwise 100 * done / total rounded half-to-even, so 1 of 8
// reads 12, not 13. Always derived from the subtask set that was just
// loaded, never cached.
func SubtasksProgress(subtasks []Subtask) int {
	total := len(subtasks)
	if total == 0 {
		return 0
	}
	done := 0
	for _, s := range subtasks {
		if s.Status {
			done++
		}
	}
	return int(math.RoundToEven(float64(done) * 100 / float64(total)))
}

// SortTasks orders tasks for listings: newest first, then priority in plain
// string order ("high" < "low" < "medium" -- lexicographic, not severity),
// then id. The string tie-break is deliberate and kept as-is.
func SortTasks(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if !a.CreatedAt.Equal(b.CreatedAt.Time) {
			return a.CreatedAt.After(b.CreatedAt.Time)
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.ID.Hex() < b.ID.Hex()
	})
}
