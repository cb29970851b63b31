package services

import (
	"testing"

	"join-project/backend/models"
)

func validRegistration() models.RegisterRequest {
	return models.RegisterRequest{
		Username:  "antonio",
		Email:     "antonio@example.com",
		Password:  "Sup3rSecret!",
		FirstName: "Antonio",
	}
}

func TestRegistrationFieldErrors_Valid(t *testing.T) {
	if ve := registrationFieldErrors(validRegistration()); !ve.Empty() {
		t.Errorf("Expected no field errors, got %v", ve.Fields)
	}
}

func TestRegistrationFieldErrors_RequiredFields(t *testing.T) {
	ve := registrationFieldErrors(models.RegisterRequest{})
	for _, field := range []string{"username", "email", "password", "first_name"} {
		if _, ok := ve.Fields[field]; !ok {
			t.Errorf("Expected a field error for %s, got %v", field, ve.Fields)
		}
	}
}

func TestRegistrationFieldErrors_RejectsEscapableCharacters(t *testing.T) {
	// The stored value, the uniqueness checks and the login lookup all use
	// the submitted string, so anything HTML escaping would rewrite must be
	// rejected instead of silently stored in escaped form.
	req := validRegistration()
	req.Email = "o'brien@example.com"
	ve := registrationFieldErrors(req)
	if _, ok := ve.Fields["email"]; !ok {
		t.Errorf("Expected a field error for an email with a quote, got %v", ve.Fields)
	}

	req = validRegistration()
	req.Username = "tom&jerry"
	ve = registrationFieldErrors(req)
	if _, ok := ve.Fields["username"]; !ok {
		t.Errorf("Expected a field error for a username with an ampersand, got %v", ve.Fields)
	}

	req = validRegistration()
	req.Username = "<script>"
	ve = registrationFieldErrors(req)
	if _, ok := ve.Fields["username"]; !ok {
		t.Errorf("Expected a field error for a username with angle brackets, got %v", ve.Fields)
	}
}
