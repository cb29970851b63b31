package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// User is one account document: login identity plus the board profile
// fields (phone, color). Identity and profile share the same id.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username    string             `bson:"username" json:"username"`
	Email       string             `bson:"email" json:"email"`
	Password    string             `bson:"password" json:"-"`
	FirstName   string             `bson:"firstName" json:"first_name"`
	LastName    string             `bson:"lastName" json:"last_name"`
	PhoneNumber string             `bson:"phoneNumber" json:"phone_number"`
	Color       string             `bson:"color" json:"color"`
}

// UserInfo is the identity part of the profile read shape.
type UserInfo struct {
	ID        primitive.ObjectID `json:"id"`
	FirstName string             `json:"first_name"`
	LastName  string             `json:"last_name"`
	Username  string             `json:"username"`
	Email     string             `json:"email"`
}

// Profile is the read representation of an account: the identity nested
// under "user", profile fields alongside. Writes use bare ids, reads use
// this expanded shape.
type Profile struct {
	ID          primitive.ObjectID `json:"id"`
	User        UserInfo           `json:"user"`
	PhoneNumber string             `json:"phone_number"`
	Color       string             `json:"color"`
}

// ProfileOf builds the expanded profile shape for a user document.
func ProfileOf(u User) Profile {
	return Profile{
		ID: u.ID,
		User: UserInfo{
			ID:        u.ID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Username:  u.Username,
			Email:     u.Email,
		},
		PhoneNumber: u.PhoneNumber,
		Color:       u.Color,
	}
}

// RegisterRequest is the payload for POST /register and POST /profiles.
type RegisterRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Color       string `json:"color"`
}

// ProfileUpdate is the partial-update payload for a profile. Nil fields are
// left untouched; username is read-only and has no field here.
type ProfileUpdate struct {
	User *struct {
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Email     *string `json:"email"`
	} `json:"user"`
	PhoneNumber *string `json:"phone_number"`
	Color       *string `json:"color"`
}
