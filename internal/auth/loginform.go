// ABOUTME: Toolbar login form binding and credential validation
// ABOUTME: Fields are prefixed with "cms" so they don't clash with page forms

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/2389/cms-toolbar/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPrefix is the field prefix used by the toolbar login form.
const DefaultPrefix = "cms"

// UsernameMaxLength is the longest accepted username.
const UsernameMaxLength = 100

// Error messages shown next to the form.
const (
	MsgRequired      = "This field is required."
	MsgTooLong       = "Ensure this value has at most 100 characters."
	MsgInvalidLogin  = "Please enter a correct username and password. Note that both fields may be case-sensitive."
	MsgInactiveLogin = "This account is inactive."
)

// dummyHash keeps comparison time constant when the user doesn't exist.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// LoginForm is the toolbar's username/password form.
type LoginForm struct {
	Prefix   string
	Username string
	Password string

	// FieldErrors maps a field name ("username", "password") to its error.
	FieldErrors map[string]string
	// Errors holds form-wide errors such as invalid credentials.
	Errors []string

	bound bool
	user  *store.User
}

// NewLoginForm returns an unbound form.
func NewLoginForm() *LoginForm {
	return &LoginForm{
		Prefix:      DefaultPrefix,
		FieldErrors: make(map[string]string),
	}
}

// BindLoginForm returns a form bound to submitted values.
func BindLoginForm(values url.Values) *LoginForm {
	f := NewLoginForm()
	f.bound = true
	f.Username = strings.TrimSpace(values.Get(f.FieldName("username")))
	f.Password = values.Get(f.FieldName("password"))
	return f
}

// FieldName returns the submitted name of a field, e.g. "cms-username".
func (f *LoginForm) FieldName(name string) string {
	if f.Prefix == "" {
		return name
	}
	return f.Prefix + "-" + name
}

// IsBound reports whether the form carries submitted data.
func (f *LoginForm) IsBound() bool {
	return f.bound
}

// User returns the authenticated user after a successful Validate.
func (f *LoginForm) User() *store.User {
	return f.user
}

// HasErrors reports whether validation produced any error.
func (f *LoginForm) HasErrors() bool {
	return len(f.FieldErrors) > 0 || len(f.Errors) > 0
}

// Validate checks the submitted credentials against users. It returns true
// when they identify an active user. Storage failures are returned as errors;
// bad credentials are reported on the form.
func (f *LoginForm) Validate(ctx context.Context, users store.UserStore) (bool, error) {
	if !f.bound {
		return false, nil
	}
	f.FieldErrors = make(map[string]string)
	f.Errors = nil
	f.user = nil

	if f.Username == "" {
		f.FieldErrors["username"] = MsgRequired
	} else if utf8.RuneCountInString(f.Username) > UsernameMaxLength {
		f.FieldErrors["username"] = MsgTooLong
	}
	if f.Password == "" {
		f.FieldErrors["password"] = MsgRequired
	}
	if len(f.FieldErrors) > 0 {
		return false, nil
	}

	user, err := Authenticate(ctx, users, f.Username, f.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			f.Errors = append(f.Errors, MsgInvalidLogin)
			return false, nil
		case errors.Is(err, ErrInactiveUser):
			f.Errors = append(f.Errors, MsgInactiveLogin)
			return false, nil
		default:
			return false, err
		}
	}

	f.user = user
	return true, nil
}

// ErrInvalidCredentials is returned when the username or password is wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInactiveUser is returned when the credentials match a disabled account.
var ErrInactiveUser = errors.New("inactive user")

// Authenticate looks up username and checks password against its bcrypt hash.
func Authenticate(ctx context.Context, users store.UserStore, username, password string) (*store.User, error) {
	user, err := users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if user.PasswordHash == "" {
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	return user, nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}
