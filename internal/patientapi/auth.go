package patientapi

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/dentalscan/scanctl/internal/errors"
	"github.com/dentalscan/scanctl/internal/model"
)

// MinPasswordLength is the shortest password registration accepts
const MinPasswordLength = 6

// Validation messages shown to the user
const (
	MsgPasswordMismatch = "Passwords do not match"
	MsgPasswordTooShort = "Password must be at least 6 characters"
	MsgEmailRequired    = "Email is required"
	MsgUnknownRole      = "Unknown role"
)

// AuthResponse is returned by login and registration
type AuthResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// Login exchanges credentials for a token
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	if strings.TrimSpace(email) == "" {
		return nil, errors.ValidationError(MsgEmailRequired)
	}

	var out AuthResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.postJSON(ctx, PathLogin, body, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, errors.Newf("login response carried no token").
			Category(errors.CategoryDecode).
			Build()
	}
	return &out, nil
}

// ValidateRegistration checks what the backend would otherwise reject, before any
// request is made. confirm is the repeated password.
func ValidateRegistration(reg *model.Registration, confirm string) error {
	if strings.TrimSpace(reg.Email) == "" {
		return errors.ValidationError(MsgEmailRequired)
	}
	if reg.Password != confirm {
		return errors.ValidationError(MsgPasswordMismatch)
	}
	if len(reg.Password) < MinPasswordLength {
		return errors.ValidationError(MsgPasswordTooShort)
	}
	if reg.Role != "" && !reg.Role.Valid() {
		return errors.ValidationError(MsgUnknownRole)
	}
	return nil
}

// Register creates an account. An empty role defaults to patient.
func (c *Client) Register(ctx context.Context, reg model.Registration, confirm string) (*AuthResponse, error) {
	if reg.Role == "" {
		reg.Role = model.RolePatient
	}
	if err := ValidateRegistration(&reg, confirm); err != nil {
		return nil, err
	}

	var out AuthResponse
	if err := c.postJSON(ctx, PathRegister, reg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the identity behind the current token. Both {"user": {...}} and a
// bare user object are accepted.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, PathMe, &raw); err != nil {
		return nil, err
	}

	var wrapped struct {
		User *model.User `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil {
		return wrapped.User, nil
	}

	var user model.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, errors.New(err).Category(errors.CategoryDecode).Build()
	}
	return &user, nil
}
