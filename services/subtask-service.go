package services

import (
	"context"
	"errors"
	"fmt"

	"join-project/backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrSubtaskNotFound = errors.New("subtask not found")

// SubtaskService covers the standalone subtask endpoints. The nested
// reconciliation path lives in TaskService; this one works on single
// subtasks addressed by their own id.
type SubtaskService struct {
	subtasks *mongo.Collection
	tasks    *mongo.Collection
}

func NewSubtaskService(db *mongo.Database) *SubtaskService {
	return &SubtaskService{
		subtasks: db.Collection("subtasks"),
		tasks:    db.Collection("tasks"),
	}
}

// Create attaches a new subtask to the task named in the payload.
func (s *SubtaskService) Create(ctx context.Context, payload models.SubtaskCreate) (*models.Subtask, error) {
	if payload.Task == "" {
		return nil, models.NewValidationError("task", "Task ID is required.")
	}
	taskID, err := primitive.ObjectIDFromHex(payload.Task)
	if err != nil {
		return nil, models.NewValidationError("task", "Task not found.")
	}

	count, err := s.tasks.CountDocuments(ctx, bson.M{"_id": taskID})
	if err != nil {
		return nil, fmt.Errorf("failed to check task: %v", err)
	}
	if count == 0 {
		return nil, models.NewValidationError("task", "Task not found.")
	}

	if payload.Title == "" {
		return nil, models.NewValidationError("title", "Title is required.")
	}
	if len(payload.Title) > 100 {
		return nil, models.NewValidationError("title", "Title must be at most 100 characters.")
	}

	subtask := models.Subtask{
		ID:     primitive.NewObjectID(),
		Title:  payload.Title,
		Status: payload.Status,
		TaskID: taskID,
	}
	if _, err := s.subtasks.InsertOne(ctx, subtask); err != nil {
		return nil, fmt.Errorf("failed to create subtask: %v", err)
	}
	return &subtask, nil
}

func (s *SubtaskService) Get(ctx context.Context, id primitive.ObjectID) (*models.Subtask, error) {
	var subtask models.Subtask
	err := s.subtasks.FindOne(ctx, bson.M{"_id": id}).Decode(&subtask)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSubtaskNotFound
		}
		return nil, fmt.Errorf("failed to load subtask: %v", err)
	}
	return &subtask, nil
}

func (s *SubtaskService) List(ctx context.Context) ([]models.Subtask, error) {
	cursor, err := s.subtasks.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve subtasks: %v", err)
	}
	subtasks := []models.Subtask{}
	if err := cursor.All(ctx, &subtasks); err != nil {
		return nil, fmt.Errorf("failed to decode subtasks: %v", err)
	}
	return subtasks, nil
}

// Update applies a partial update to title and status.
func (s *SubtaskService) Update(ctx context.Context, id primitive.ObjectID, upd models.SubtaskUpdate) (*models.Subtask, error) {
	set := bson.M{}
	if upd.Title != nil {
		if *upd.Title == "" {
			return nil, models.NewValidationError("title", "Title is required.")
		}
		if len(*upd.Title) > 100 {
			return nil, models.NewValidationError("title", "Title must be at most 100 characters.")
		}
		set["title"] = *upd.Title
	}
	if upd.Status != nil {
		set["status"] = *upd.Status
	}

	if len(set) > 0 {
		result, err := s.subtasks.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
		if err != nil {
			return nil, fmt.Errorf("failed to update subtask: %v", err)
		}
		if result.MatchedCount == 0 {
			return nil, ErrSubtaskNotFound
		}
	}

	return s.Get(ctx, id)
}

func (s *SubtaskService) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.subtasks.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete subtask: %v", err)
	}
	if result.DeletedCount == 0 {
		return ErrSubtaskNotFound
	}
	return nil
}
