package services

import (
	"context"
	"strings"

	"lms/backend/models"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RegisterInput struct {
	Username  string      `json:"username" validate:"required,min=3,max=32"`
	Email     string      `json:"email" validate:"required,email"`
	Password  string      `json:"password" validate:"required,min=8"`
	Role      models.Role `json:"role" validate:"omitempty,oneof=student instructor"`
	FirstName string      `json:"first_name" validate:"max=64"`
	LastName  string      `json:"last_name" validate:"max=64"`
}

type ProfileInput struct {
	Email       *string `json:"email" validate:"omitempty,email"`
	FirstName   *string `json:"first_name" validate:"omitempty,max=64"`
	LastName    *string `json:"last_name" validate:"omitempty,max=64"`
	Bio         *string `json:"bio" validate:"omitempty,max=2000"`
	OldPassword string  `json:"old_password"`
	NewPassword string  `json:"new_password" validate:"omitempty,min=8"`
}

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Register creates an account. Duplicate username or email is a conflict.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	role := in.Role
	if role == "" {
		role = models.RoleStudent
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, errors.Wrap(err, "hash password")
	}

	user := models.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: string(hash),
		Role:         role,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	}

	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&user)
	if res.Error != nil {
		return models.User{}, errors.Wrap(res.Error, "create user")
	}
	if res.RowsAffected == 0 {
		return models.User{}, ErrUserExists
	}
	return user, nil
}

// Authenticate accepts a username or an email as login.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (models.User, error) {
	login = strings.TrimSpace(login)

	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", login, strings.ToLower(login)).
		Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, errors.Wrap(err, "query user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, notFound(err, ErrUserNotFound)
	}
	return user, nil
}

// UpdateProfile changes only the fields present in the input. A new password
// needs the current one.
func (s *UserService) UpdateProfile(ctx context.Context, id uint, in ProfileInput) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			return notFound(err, ErrUserNotFound)
		}

		if in.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*in.Email))
			if email != user.Email {
				var taken int64
				if err := tx.Model(&models.User{}).
					Where("email = ? AND id <> ?", email, user.ID).
					Count(&taken).Error; err != nil {
					return errors.Wrap(err, "query email")
				}
				if taken > 0 {
					return ErrUserExists
				}
				user.Email = email
			}
		}
		if in.FirstName != nil {
			user.FirstName = *in.FirstName
		}
		if in.LastName != nil {
			user.LastName = *in.LastName
		}
		if in.Bio != nil {
			user.Bio = *in.Bio
		}

		if in.NewPassword != "" {
			if in.OldPassword == "" {
				return NewValidationError(ErrWrongPassword, FieldError{Field: "old_password", Error: "old_password is required to set a new password"})
			}
			if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.OldPassword)); err != nil {
				return NewValidationError(ErrWrongPassword, FieldError{Field: "old_password", Error: "old_password is incorrect"})
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
			if err != nil {
				return errors.Wrap(err, "hash password")
			}
			user.PasswordHash = string(hash)
		}

		return errors.Wrap(tx.Save(&user).Error, "save user")
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}
