package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"nexus-admin-backend/internal/models"
	"nexus-admin-backend/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mcnijman/go-emailaddress"
	"github.com/rs/zerolog/log"
)

// DeleteConfirmMessage is shown before a user is deleted
const DeleteConfirmMessage = "Are you sure you want to delete this user?"

// Confirmer asks the operator a yes/no question
type Confirmer interface {
	Confirm(message string) bool
}

// ConfirmFunc adapts a function to the Confirmer interface
type ConfirmFunc func(message string) bool

// Confirm calls f(message)
func (f ConfirmFunc) Confirm(message string) bool {
	return f(message)
}

// UserService handles user-related business logic
type UserService struct {
	userRepo *repository.UserRepository
	validate *validator.Validate
}

// NewUserService creates a new user service
func NewUserService(userRepo *repository.UserRepository) *UserService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &UserService{
		userRepo: userRepo,
		validate: validate,
	}
}

// ListUsers returns all users in insertion order
func (s *UserService) ListUsers() []models.User {
	return s.userRepo.List()
}

// GetUser retrieves a single user
func (s *UserService) GetUser(id string) (models.User, error) {
	return s.userRepo.GetByID(id)
}

// NewDraft returns an empty user with a fresh ID and a default promo window
func (s *UserService) NewDraft(now time.Time) models.User {
	return models.User{
		ID:        uuid.New().String(),
		PromoCode: models.DefaultPromoCode(now),
	}
}

// Validate checks the fields the editor requires before saving
func (s *UserService) Validate(user models.User) error {
	var fields []string

	if err := s.validate.Struct(user); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("failed to validate user: %w", err)
		}
		for _, fe := range verrs {
			fields = append(fields, strings.TrimPrefix(fe.Namespace(), "User."))
		}
	}

	if email := strings.TrimSpace(user.Email); email != "" {
		if _, err := emailaddress.Parse(email); err != nil {
			fields = append(fields, "email")
		}
	}

	if len(fields) > 0 {
		return &models.ValidationError{Fields: fields}
	}
	return nil
}

// SaveUser stores the candidate, overwriting any user with the same ID.
// The caller is trusted to have validated the candidate.
func (s *UserService) SaveUser(user models.User) {
	replaced := s.userRepo.Save(user)

	log.Info().
		Str("user_id", user.ID).
		Bool("replaced", replaced).
		Msg("User saved")
}

// DeleteUser removes a user once the confirmer agrees.
// It reports whether a user was actually removed; declining or a missing ID leaves the registry untouched.
func (s *UserService) DeleteUser(id string, confirmer Confirmer) bool {
	if confirmer == nil || !confirmer.Confirm(DeleteConfirmMessage) {
		log.Debug().Str("user_id", id).Msg("User deletion cancelled")
		return false
	}

	deleted := s.userRepo.Delete(id)
	if deleted {
		log.Info().Str("user_id", id).Msg("User deleted")
	}
	return deleted
}
