package services

import (
	"context"
	"errors"
	"fmt"

	"join-project/backend/logging"
	"join-project/backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrTaskNotFound = errors.New("task not found")

// TaskService owns the tasks and subtasks collections. Task writes touch up
// to three things at once (scalar fields, the member set, the subtask
// collection), so every write path runs in one transaction.
type TaskService struct {
	tasks    *mongo.Collection
	subtasks *mongo.Collection
	users    *mongo.Collection
	client   *mongo.Client
}

func NewTaskService(db *mongo.Database) *TaskService {
	return &TaskService{
		tasks:    db.Collection("tasks"),
		subtasks: db.Collection("subtasks"),
		users:    db.Collection("users"),
		client:   db.Client(),
	}
}

// EnsureIndexes creates the owning-task index used by every subtask lookup.
func (s *TaskService) EnsureIndexes(ctx context.Context) error {
	_, err := s.subtasks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "taskId", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create subtask indexes: %v", err)
	}
	return nil
}

func (s *TaskService) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %v", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// CreateTask inserts the task, sets its member list and creates one subtask
// per nested item, all in one transaction. Nested items on create never
// carry usable ids; every one becomes a new subtask.
func (s *TaskService) CreateTask(ctx context.Context, payload models.TaskCreate) (*models.TaskDetail, error) {
	task := models.Task{
		ID:          primitive.NewObjectID(),
		Title:       payload.Title,
		Category:    payload.Category,
		Description: payload.Description,
		Status:      payload.Status,
		Color:       payload.Color,
		Priority:    payload.Priority,
		Members:     dedupeIDs(payload.Members),
		CreatedAt:   models.Today(),
		Checked:     payload.Checked,
	}
	if task.Category == "" {
		task.Category = models.CategoryUserStory
	}
	if task.Status == "" {
		task.Status = models.StatusTodo
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if payload.DueDate != nil {
		task.DueDate = *payload.DueDate
	} else {
		task.DueDate = models.Today()
	}

	if err := s.validateTaskFields(task.Title, task.Category, task.Status, task.Priority, task.Description); err != nil {
		return nil, err
	}
	if err := s.validateMembers(ctx, task.Members); err != nil {
		return nil, err
	}
	subtasks, err := subtasksForCreate(task.ID, payload.Subtasks)
	if err != nil {
		return nil, err
	}

	err = s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := s.tasks.InsertOne(sc, task); err != nil {
			return fmt.Errorf("failed to create task: %v", err)
		}
		if len(subtasks) > 0 {
			docs := make([]interface{}, len(subtasks))
			for i, sub := range subtasks {
				docs[i] = sub
			}
			if _, err := s.subtasks.InsertMany(sc, docs); err != nil {
				return fmt.Errorf("failed to create subtasks: %v", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Created task %s with %d subtasks and %d members", task.ID.Hex(), len(subtasks), len(task.Members))
	return s.GetTask(ctx, task.ID)
}

// UpdateTask applies a partial update. A present members list replaces the
// whole member set. A present subtasks list is reconciled against the
// stored collection by id: matched items are updated in place, items
// without a recognized id are created, and any stored subtask whose id the
// list omits is deleted. Omission is a delete instruction, not a merge.
// An absent subtasks field leaves the collection untouched.
func (s *TaskService) UpdateTask(ctx context.Context, id primitive.ObjectID, upd models.TaskUpdate) (*models.TaskDetail, error) {
	var existing models.Task
	if err := s.tasks.FindOne(ctx, bson.M{"_id": id}).Decode(&existing); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to load task: %v", err)
	}

	set, err := taskScalarUpdates(upd)
	if err != nil {
		return nil, err
	}

	var members []primitive.ObjectID
	if upd.Members != nil {
		members = dedupeIDs(*upd.Members)
		if err := s.validateMembers(ctx, members); err != nil {
			return nil, err
		}
		set["members"] = members
	}

	err = s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if len(set) > 0 {
			if _, err := s.tasks.UpdateOne(sc, bson.M{"_id": id}, bson.M{"$set": set}); err != nil {
				return fmt.Errorf("failed to update task: %v", err)
			}
		}

		if upd.Subtasks == nil {
			return nil
		}

		current, err := s.subtasksOf(sc, id)
		if err != nil {
			return err
		}
		plan := planSubtaskReconcile(id, current, *upd.Subtasks)

		for _, change := range plan.updates {
			fields := bson.M{}
			if change.Title != nil {
				fields["title"] = *change.Title
			}
			if change.Status != nil {
				fields["status"] = *change.Status
			}
			if len(fields) == 0 {
				continue
			}
			if _, err := s.subtasks.UpdateOne(sc, bson.M{"_id": change.ID}, bson.M{"$set": fields}); err != nil {
				return fmt.Errorf("failed to update subtask: %v", err)
			}
		}
		if len(plan.creates) > 0 {
			docs := make([]interface{}, len(plan.creates))
			for i, sub := range plan.creates {
				docs[i] = sub
			}
			if _, err := s.subtasks.InsertMany(sc, docs); err != nil {
				return fmt.Errorf("failed to create subtasks: %v", err)
			}
		}
		if len(plan.deletes) > 0 {
			if _, err := s.subtasks.DeleteMany(sc, bson.M{"_id": bson.M{"$in": plan.deletes}}); err != nil {
				return fmt.Errorf("failed to delete subtasks: %v", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetTask(ctx, id)
}

// DeleteTask removes the task together with every subtask it owns.
func (s *TaskService) DeleteTask(ctx context.Context, id primitive.ObjectID) error {
	return s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		result, err := s.tasks.DeleteOne(sc, bson.M{"_id": id})
		if err != nil {
			return fmt.Errorf("failed to delete task: %v", err)
		}
		if result.DeletedCount == 0 {
			return ErrTaskNotFound
		}
		if _, err := s.subtasks.DeleteMany(sc, bson.M{"taskId": id}); err != nil {
			return fmt.Errorf("failed to delete subtasks: %v", err)
		}
		return nil
	})
}

// GetTask loads one task in the read shape: members expanded to profiles,
// subtasks attached, progress computed fresh from the persisted set.
func (s *TaskService) GetTask(ctx context.Context, id primitive.ObjectID) (*models.TaskDetail, error) {
	var task models.Task
	if err := s.tasks.FindOne(ctx, bson.M{"_id": id}).Decode(&task); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to load task: %v", err)
	}

	subtasks, err := s.subtasksOf(ctx, id)
	if err != nil {
		return nil, err
	}
	profiles, err := s.profilesByID(ctx, task.Members)
	if err != nil {
		return nil, err
	}

	detail := buildTaskDetail(task, subtasks, profiles)
	return &detail, nil
}

// ListTasks returns all tasks in the default listing order, each in the
// read shape. Subtasks and member profiles are fetched in two batched
// queries instead of per task.
func (s *TaskService) ListTasks(ctx context.Context) ([]models.TaskDetail, error) {
	cursor, err := s.tasks.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %v", err)
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %v", err)
	}
	models.SortTasks(tasks)

	taskIDs := make([]primitive.ObjectID, 0, len(tasks))
	memberIDs := make([]primitive.ObjectID, 0)
	for _, t := range tasks {
		taskIDs = append(taskIDs, t.ID)
		memberIDs = append(memberIDs, t.Members...)
	}

	subtasksByTask := map[primitive.ObjectID][]models.Subtask{}
	if len(taskIDs) > 0 {
		subCursor, err := s.subtasks.Find(ctx, bson.M{"taskId": bson.M{"$in": taskIDs}},
			options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve subtasks: %v", err)
		}
		var subs []models.Subtask
		if err := subCursor.All(ctx, &subs); err != nil {
			return nil, fmt.Errorf("failed to decode subtasks: %v", err)
		}
		for _, sub := range subs {
			subtasksByTask[sub.TaskID] = append(subtasksByTask[sub.TaskID], sub)
		}
	}

	profiles, err := s.profilesByID(ctx, dedupeIDs(memberIDs))
	if err != nil {
		return nil, err
	}

	details := make([]models.TaskDetail, 0, len(tasks))
	for _, t := range tasks {
		details = append(details, buildTaskDetail(t, subtasksByTask[t.ID], profiles))
	}
	return details, nil
}

func (s *TaskService) subtasksOf(ctx context.Context, taskID primitive.ObjectID) ([]models.Subtask, error) {
	cursor, err := s.subtasks.Find(ctx, bson.M{"taskId": taskID},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve subtasks: %v", err)
	}
	var subs []models.Subtask
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, fmt.Errorf("failed to decode subtasks: %v", err)
	}
	return subs, nil
}

func (s *TaskService) profilesByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Profile, error) {
	profiles := map[primitive.ObjectID]models.Profile{}
	if len(ids) == 0 {
		return profiles, nil
	}

	cursor, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve members: %v", err)
	}
	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode members: %v", err)
	}
	for _, u := range users {
		profiles[u.ID] = models.ProfileOf(u)
	}
	return profiles, nil
}

// validateMembers rejects any member id that does not reference an existing
// account.
func (s *TaskService) validateMembers(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	count, err := s.users.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return fmt.Errorf("failed to check members: %v", err)
	}
	if count != int64(len(ids)) {
		return models.NewValidationError("members", "One or more member ids do not reference an existing profile.")
	}
	return nil
}

func (s *TaskService) validateTaskFields(title string, category models.TaskCategory, status models.TaskStatus, priority models.TaskPriority, description string) error {
	ve := &models.ValidationError{}
	if title == "" {
		ve.Add("title", "Title is required.")
	}
	if len(title) > 80 {
		ve.Add("title", "Title must be at most 80 characters.")
	}
	if len(description) > 250 {
		ve.Add("description", "Description must be at most 250 characters.")
	}
	if !models.ValidCategory(category) {
		ve.Add("category", fmt.Sprintf("%q is not a valid category.", category))
	}
	if !models.ValidStatus(status) {
		ve.Add("status", fmt.Sprintf("%q is not a valid status.", status))
	}
	if !models.ValidPriority(priority) {
		ve.Add("priority", fmt.Sprintf("%q is not a valid priority.", priority))
	}
	if ve.Empty() {
		return nil
	}
	return ve
}

func taskScalarUpdates(upd models.TaskUpdate) (bson.M, error) {
	ve := &models.ValidationError{}
	set := bson.M{}

	if upd.Title != nil {
		if *upd.Title == "" {
			ve.Add("title", "Title is required.")
		} else if len(*upd.Title) > 80 {
			ve.Add("title", "Title must be at most 80 characters.")
		} else {
			set["title"] = *upd.Title
		}
	}
	if upd.Category != nil {
		if !models.ValidCategory(*upd.Category) {
			ve.Add("category", fmt.Sprintf("%q is not a valid category.", *upd.Category))
		} else {
			set["category"] = *upd.Category
		}
	}
	if upd.Description != nil {
		if len(*upd.Description) > 250 {
			ve.Add("description", "Description must be at most 250 characters.")
		} else {
			set["description"] = *upd.Description
		}
	}
	if upd.Status != nil {
		if !models.ValidStatus(*upd.Status) {
			ve.Add("status", fmt.Sprintf("%q is not a valid status.", *upd.Status))
		} else {
			set["status"] = *upd.Status
		}
	}
	if upd.Color != nil {
		set["color"] = *upd.Color
	}
	if upd.Priority != nil {
		if !models.ValidPriority(*upd.Priority) {
			ve.Add("priority", fmt.Sprintf("%q is not a valid priority.", *upd.Priority))
		} else {
			set["priority"] = *upd.Priority
		}
	}
	if upd.DueDate != nil {
		set["dueDate"] = *upd.DueDate
	}
	if upd.Checked != nil {
		set["checked"] = *upd.Checked
	}

	if !ve.Empty() {
		return nil, ve
	}
	return set, nil
}

type subtaskChange struct {
	ID     primitive.ObjectID
	Title  *string
	Status *bool
}

type subtaskPlan struct {
	updates []subtaskChange
	creates []models.Subtask
	deletes []primitive.ObjectID
}

// planSubtaskReconcile diffs the stored subtask set against the submitted
// list, keyed by id. Each incoming item either claims an existing subtask
// (update) or becomes a new one (create); whatever stays unclaimed is
// deleted. The delete-on-omission behavior is the contract here; this must
// stay a diff and never turn into a merge.
func planSubtaskReconcile(taskID primitive.ObjectID, existing []models.Subtask, incoming []models.SubtaskInput) subtaskPlan {
	remaining := make(map[primitive.ObjectID]models.Subtask, len(existing))
	for _, sub := range existing {
		remaining[sub.ID] = sub
	}

	var plan subtaskPlan
	for _, item := range incoming {
		if item.ID != nil {
			if _, ok := remaining[*item.ID]; ok {
				delete(remaining, *item.ID)
				plan.updates = append(plan.updates, subtaskChange{ID: *item.ID, Title: item.Title, Status: item.Status})
				continue
			}
		}

		sub := models.Subtask{ID: primitive.NewObjectID(), TaskID: taskID}
		if item.Title != nil {
			sub.Title = *item.Title
		}
		if item.Status != nil {
			sub.Status = *item.Status
		}
		plan.creates = append(plan.creates, sub)
	}

	// keep the order the subtasks were stored in
	for _, sub := range existing {
		if _, ok := remaining[sub.ID]; ok {
			plan.deletes = append(plan.deletes, sub.ID)
		}
	}
	return plan
}

func subtasksForCreate(taskID primitive.ObjectID, inputs []models.SubtaskInput) ([]models.Subtask, error) {
	subtasks := make([]models.Subtask, 0, len(inputs))
	for _, item := range inputs {
		if item.Title == nil || *item.Title == "" {
			return nil, models.NewValidationError("subtasks", "Each subtask requires a title.")
		}
		sub := models.Subtask{
			ID:     primitive.NewObjectID(),
			Title:  *item.Title,
			TaskID: taskID,
		}
		if item.Status != nil {
			sub.Status = *item.Status
		}
		subtasks = append(subtasks, sub)
	}
	return subtasks, nil
}

func buildTaskDetail(task models.Task, subtasks []models.Subtask, profiles map[primitive.ObjectID]models.Profile) models.TaskDetail {
	members := make([]models.Profile, 0, len(task.Members))
	for _, id := range task.Members {
		if p, ok := profiles[id]; ok {
			members = append(members, p)
		}
	}
	if subtasks == nil {
		subtasks = []models.Subtask{}
	}
	return models.TaskDetail{
		ID:               task.ID,
		Title:            task.Title,
		Category:         task.Category,
		Description:      task.Description,
		Status:           task.Status,
		Color:            task.Color,
		Priority:         task.Priority,
		Members:          members,
		CreatedAt:        task.CreatedAt,
		DueDate:          task.DueDate,
		Checked:          task.Checked,
		Subtasks:         subtasks,
		SubtasksProgress: models.SubtasksProgress(subtasks),
	}
}

func dedupeIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
