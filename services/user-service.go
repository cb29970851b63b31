package services

import (
	"context"
	"errors"
	"fmt"
	"html"

	"join-project/backend/logging"
	"join-project/backend/models"
	"join-project/backend/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrUserNotFound = errors.New("user not found")

func uniqueIndex() *options.IndexOptions {
	return options.Index().SetUnique(true)
}

// UserService owns the users collection: registration, profile reads and
// updates, and the account-deletion cascade into task membership.
type UserService struct {
	users           *mongo.Collection
	tasks           *mongo.Collection
	client          *mongo.Client
	commonPasswords map[string]bool
}

func NewUserService(db *mongo.Database, commonPasswords map[string]bool) *UserService {
	return &UserService{
		users:           db.Collection("users"),
		tasks:           db.Collection("tasks"),
		client:          db.Client(),
		commonPasswords: commonPasswords,
	}
}

// EnsureIndexes creates the uniqueness indexes for username and email.
func (s *UserService) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: uniqueIndex()},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: uniqueIndex()},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %v", err)
	}
	return nil
}

// registrationFieldErrors validates the registration payload. Username and
// email must survive HTML escaping unchanged: the stored value, the
// uniqueness checks and the login lookup all use the submitted string, so a
// value that escaping would rewrite must be rejected up front.
func registrationFieldErrors(req models.RegisterRequest) *models.ValidationError {
	ve := &models.ValidationError{}
	if req.Username == "" {
		ve.Add("username", "Username is required.")
	} else if html.EscapeString(req.Username) != req.Username {
		ve.Add("username", "Username contains invalid characters.")
	}
	if req.Email == "" {
		ve.Add("email", "Email is required.")
	} else if html.EscapeString(req.Email) != req.Email {
		ve.Add("email", "Email contains invalid characters.")
	}
	if req.Password == "" {
		ve.Add("password", "Password is required.")
	}
	if req.FirstName == "" {
		ve.Add("first_name", "First name is required.")
	}
	return ve
}

// Register creates an identity plus profile document. Username and email
// uniqueness are checked independently so each produces its own field
// error. Only the bcrypt hash of the password is stored.
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if ve := registrationFieldErrors(req); !ve.Empty() {
		return nil, ve
	}

	if s.commonPasswords[req.Password] {
		return nil, models.NewValidationError("password", "This password is too common. Please choose a stronger one.")
	}

	count, err := s.users.CountDocuments(ctx, bson.M{"username": req.Username})
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %v", err)
	}
	if count > 0 {
		return nil, models.NewValidationError("username", "Username already exists.")
	}

	count, err = s.users.CountDocuments(ctx, bson.M{"email": req.Email})
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %v", err)
	}
	if count > 0 {
		return nil, models.NewValidationError("email", "Email already exists.")
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	color := req.Color
	if color == "" {
		color = "green"
	}

	user := models.User{
		ID:          primitive.NewObjectID(),
		Username:    req.Username,
		Email:       req.Email,
		Password:    hashedPassword,
		FirstName:   html.EscapeString(req.FirstName),
		LastName:    html.EscapeString(req.LastName),
		PhoneNumber: req.PhoneNumber,
		Color:       color,
	}

	if _, err := s.users.InsertOne(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user: %v", err)
	}

	logging.Logger.Infof("Event ID: USER_REGISTERED, Description: Registered user %s", user.Username)
	return &user, nil
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %v", err)
	}
	return &user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %v", err)
	}
	return &user, nil
}

// ListProfiles returns every account in the expanded profile shape.
func (s *UserService) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	cursor, err := s.users.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve profiles: %v", err)
	}
	defer cursor.Close(ctx)

	profiles := []models.Profile{}
	for cursor.Next(ctx) {
		var user models.User
		if err := cursor.Decode(&user); err != nil {
			return nil, fmt.Errorf("failed to decode user: %v", err)
		}
		profiles = append(profiles, models.ProfileOf(user))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %v", err)
	}
	return profiles, nil
}

func (s *UserService) GetProfile(ctx context.Context, id primitive.ObjectID) (*models.Profile, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	profile := models.ProfileOf(*user)
	return &profile, nil
}

// UpdateProfile applies a partial update to profile and nested identity
// fields. Username is immutable; an email change re-checks uniqueness
// against every other account.
func (s *UserService) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd models.ProfileUpdate) (*models.Profile, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if upd.User != nil {
		if upd.User.FirstName != nil {
			set["firstName"] = html.EscapeString(*upd.User.FirstName)
		}
		if upd.User.LastName != nil {
			set["lastName"] = html.EscapeString(*upd.User.LastName)
		}
		if upd.User.Email != nil && *upd.User.Email != user.Email {
			if html.EscapeString(*upd.User.Email) != *upd.User.Email {
				return nil, models.NewValidationError("email", "Email contains invalid characters.")
			}
			count, err := s.users.CountDocuments(ctx, bson.M{
				"email": *upd.User.Email,
				"_id":   bson.M{"$ne": id},
			})
			if err != nil {
				return nil, fmt.Errorf("failed to check email: %v", err)
			}
			if count > 0 {
				return nil, models.NewValidationError("email", "This email is already in use.")
			}
			set["email"] = *upd.User.Email
		}
	}
	if upd.PhoneNumber != nil {
		set["phoneNumber"] = *upd.PhoneNumber
	}
	if upd.Color != nil {
		set["color"] = *upd.Color
	}

	if len(set) > 0 {
		if _, err := s.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set}); err != nil {
			return nil, fmt.Errorf("failed to update profile: %v", err)
		}
	}

	return s.GetProfile(ctx, id)
}

// DeleteAccount removes the identity+profile document and pulls the id out
// of every task's member set. Membership is a shared reference, so tasks
// themselves survive. Both writes commit together.
func (s *UserService) DeleteAccount(ctx context.Context, id primitive.ObjectID) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %v", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		result, err := s.users.DeleteOne(sc, bson.M{"_id": id})
		if err != nil {
			return nil, fmt.Errorf("failed to delete user: %v", err)
		}
		if result.DeletedCount == 0 {
			return nil, ErrUserNotFound
		}

		_, err = s.tasks.UpdateMany(sc, bson.M{}, bson.M{"$pull": bson.M{"members": id}})
		if err != nil {
			return nil, fmt.Errorf("failed to remove user from tasks: %v", err)
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	logging.Logger.Infof("Event ID: USER_DELETED, Description: Deleted account %s and removed it from all task member sets", id.Hex())
	return nil
}
