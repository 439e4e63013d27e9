// Package validation checks the shape of user payloads before they reach
// the use-case layer. Validators never fail; they return messages.
package validation

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Mode selects which rules apply to a payload.
type Mode int

const (
	ModeCreate Mode = iota
	ModeUpdate
)

const minPasswordLength = 8

const (
	MsgNoData        = "No data provided in the request body."
	MsgNameRequired  = "Name is required."
	MsgEmailRequired = "Email is required."
	MsgPassRequired  = "Password is required."
	MsgInvalidEmail  = "Invalid email format."
	MsgPasswordShort = "Password must be at least 8 characters long."
	MsgNameBlank     = "Name cannot be empty."
	MsgNoLoginData   = "No login data provided"
	MsgLoginRequired = "Email and password are required"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("useremail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Payload is a user write request. Nil means the field was not sent.
// Keys counts every member of the decoded JSON object, recognised or not.
type Payload struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Keys     int     `json:"-"`
}

func (p *Payload) UnmarshalJSON(data []byte) error {
	type fields Payload
	var v fields
	keys, err := decodeObject(data, &v)
	if err != nil {
		return err
	}
	*p = Payload(v)
	p.Keys = keys
	return nil
}

func (p Payload) empty() bool {
	return p.Keys == 0 && p.Name == nil && p.Email == nil && p.Password == nil
}

// Login is a login request body.
type Login struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Keys     int     `json:"-"`
}

func (l *Login) UnmarshalJSON(data []byte) error {
	type fields Login
	var v fields
	keys, err := decodeObject(data, &v)
	if err != nil {
		return err
	}
	*l = Login(v)
	l.Keys = keys
	return nil
}

// decodeObject fills v from a JSON object (or null) and reports how many
// members the object had.
func decodeObject(data []byte, v any) (int, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return 0, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return 0, err
	}
	return len(members), nil
}

// Validate returns every problem with p under mode, or nil when p is valid.
// On create, missing fields are reported alone without format checks.
func Validate(p Payload, mode Mode) []string {
	if p.empty() {
		return []string{MsgNoData}
	}

	var errs []string
	if mode == ModeCreate {
		if !present(p.Name) {
			errs = append(errs, MsgNameRequired)
		}
		if !present(p.Email) {
			errs = append(errs, MsgEmailRequired)
		}
		if !present(p.Password) {
			errs = append(errs, MsgPassRequired)
		}
		if len(errs) > 0 {
			return errs
		}
	}

	if present(p.Email) && !check(*p.Email, "useremail") {
		errs = append(errs, MsgInvalidEmail)
	}
	if present(p.Password) && !check(*p.Password, "min=8") {
		errs = append(errs, MsgPasswordShort)
	}
	if present(p.Name) && !check(*p.Name, "notblank") {
		errs = append(errs, MsgNameBlank)
	}
	return errs
}

// ValidateLogin checks that both credentials were sent.
func ValidateLogin(l Login) []string {
	if l.Keys == 0 && l.Email == nil && l.Password == nil {
		return []string{MsgNoLoginData}
	}
	if !present(l.Email) || !present(l.Password) {
		return []string{MsgLoginRequired}
	}
	return nil
}

func present(value *string) bool {
	return value != nil && *value != ""
}

func check(value, tag string) bool {
	return validate.Var(value, tag) == nil
}
