package service

import (
	"context"
	"errors"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"notebookService/internal/apperr"
	"notebookService/internal/assets"
	"notebookService/internal/auth"
	"notebookService/models"
	"notebookService/repository"
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// RegisterInput is the self-registration form.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// UserUpdate carries the fields a user may change on their own record.
type UserUpdate struct {
	Email    *string
	Password *string
	Picture  *assets.Image
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string
	User  *models.User
}

// UserService handles registration, login and the caller's own record.
type UserService struct {
	base
}

// Register creates a user with a hashed password.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := validateLength("username", in.Username, 6, 128); err != nil {
		return nil, err
	}
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}
	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	if u, err := s.Users.GetByEmail(ctx, in.Email); err != nil {
		return nil, apperr.Internal(err, "get user")
	} else if u != nil {
		return nil, apperr.Conflict("Email already taken")
	}
	if u, err := s.Users.GetByUsername(ctx, in.Username); err != nil {
		return nil, apperr.Internal(err, "get user")
	} else if u != nil {
		return nil, apperr.Conflict("Username already taken")
	}

	u, err := s.Users.Create(ctx, &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, apperr.Conflict("Email already taken")
	}
	if err != nil {
		return nil, apperr.Internal(err, "create user")
	}
	return u, nil
}

// Login checks the credentials and issues a token.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Internal(err, "get user")
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, apperr.Unauthenticated("Invalid email or password")
	}
	token, err := s.Issuer.Issue(u.Username)
	if err != nil {
		return nil, apperr.Internal(err, "issue token")
	}
	return &LoginResult{Token: token, User: u}, nil
}

// Details returns the caller's record.
func (s *UserService) Details(ctx context.Context) (*models.User, error) {
	return auth.ResolveUser(ctx, s.Users)
}

// Picture opens the caller's profile picture.
func (s *UserService) Picture(ctx context.Context) (*os.File, error) {
	u, err := auth.ResolveUser(ctx, s.Users)
	if err != nil {
		return nil, err
	}
	return s.Assets.Open(u.Picture)
}

// Update applies a partial change to the caller's record. A replaced custom
// picture is removed after the record is saved.
func (s *UserService) Update(ctx context.Context, in UserUpdate) (*models.User, error) {
	u, err := auth.ResolveUser(ctx, s.Users)
	if err != nil {
		return nil, err
	}
	if in.Email != nil && *in.Email != u.Email {
		if err := validateEmail(*in.Email); err != nil {
			return nil, err
		}
		other, err := s.Users.GetByEmail(ctx, *in.Email)
		if err != nil {
			return nil, apperr.Internal(err, "get user")
		}
		if other != nil {
			return nil, apperr.Conflict("Email already taken")
		}
		u.Email = *in.Email
	}
	if in.Password != nil {
		if u.PasswordHash, err = s.hashPassword(*in.Password); err != nil {
			return nil, err
		}
	}

	oldPicture := u.Picture
	newPicture := ""
	if in.Picture != nil {
		if newPicture, err = s.Assets.SaveImage(assets.ProfilePictureDir, *in.Picture); err != nil {
			return nil, err
		}
		u.Picture = newPicture
	}

	if err := s.Users.Update(ctx, u); err != nil {
		s.discardAsset(newPicture)
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("Email already taken")
		}
		return nil, apperr.Internal(err, "update user")
	}
	if newPicture != "" && oldPicture != models.DefaultPicture {
		s.discardAsset(oldPicture)
	}
	return u, nil
}

func (s *UserService) hashPassword(password string) (string, error) {
	if err := validateLength("password", password, 6, 128); err != nil {
		return "", err
	}
	cost := s.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperr.Validation("password should be at most 72 bytes")
	}
	if err != nil {
		return "", apperr.Internal(err, "hash password")
	}
	return string(hash), nil
}

func validateLength(field, value string, min, max int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	if n == 0 {
		return apperr.Validation("Missing required fields: %s", field)
	}
	if n < min {
		return apperr.Validation("%s should be more than %d characters", field, min)
	}
	if n > max {
		return apperr.Validation("%s should be less than %d characters", field, max)
	}
	return nil
}

func validateEmail(email string) error {
	if err := validateLength("email", email, 8, 256); err != nil {
		return err
	}
	if !emailPattern.MatchString(email) {
		return apperr.Validation("Please enter a valid email address")
	}
	return nil
}
