// Package forms validates user input before it is sent to the backend.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/gameofbones/gameofbones/internal/cli/client"
)

// FieldErrors maps a field's JSON name to a human-readable message.
// An empty map means the form is valid.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%s: %s", f, fe[f])
	}
	return strings.Join(parts, "; ")
}

// Err returns fe as an error, or nil when it is empty.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// LoginForm is the input of the login page
type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (f LoginForm) Credentials() client.Credentials {
	return client.Credentials{Email: strings.TrimSpace(f.Email), Password: f.Password}
}

// RegisterForm is the input of the registration page
type RegisterForm struct {
	Username        string `json:"username" validate:"required,min=3,max=30,alphanumunder"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

func (f RegisterForm) Registration() client.Registration {
	return client.Registration{
		Username: strings.TrimSpace(f.Username),
		Email:    strings.TrimSpace(f.Email),
		Password: f.Password,
	}
}

// PostForm is the input of the new and edit post pages. Coordinates are
// optional but come in pairs.
type PostForm struct {
	Title        string   `json:"title" validate:"required,max=200"`
	Content      string   `json:"content" validate:"required"`
	ImageURL     string   `json:"image_url" validate:"omitempty,url"`
	Latitude     *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude    *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	LocationName string   `json:"location_name" validate:"max=120"`
}

func (f PostForm) Input() client.PostInput {
	return client.PostInput{
		Title:        strings.TrimSpace(f.Title),
		Content:      f.Content,
		ImageURL:     strings.TrimSpace(f.ImageURL),
		Latitude:     f.Latitude,
		Longitude:    f.Longitude,
		LocationName: strings.TrimSpace(f.LocationName),
	}
}

// RoleForm is the input of the admin role change
type RoleForm struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		// Letters, digits and underscores
		_ = v.RegisterValidation("alphanumunder", func(fl validator.FieldLevel) bool {
			for _, r := range fl.Field().String() {
				if !((r >= 'a' && r <= 'z') ||
					(r >= 'A' && r <= 'Z') ||
					(r >= '0' && r <= '9') ||
					r == '_') {
					return false
				}
			}
			return true
		})

		v.RegisterStructValidation(func(sl validator.StructLevel) {
			f := sl.Current().Interface().(PostForm)
			if f.Latitude != nil && f.Longitude == nil {
				sl.ReportError(f.Longitude, "longitude", "Longitude", "pair", "latitude")
			}
			if f.Longitude != nil && f.Latitude == nil {
				sl.ReportError(f.Latitude, "latitude", "Latitude", "pair", "longitude")
			}
		}, PostForm{})

		validate = v
	})
	return validate
}

// Validate checks form and returns the per-field problems.
func Validate(form any) FieldErrors {
	fe := FieldErrors{}

	err := instance().Struct(form)
	if err == nil {
		return fe
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fe["form"] = err.Error()
		return fe
	}
	for _, e := range verrs {
		if _, seen := fe[e.Field()]; seen {
			continue
		}
		fe[e.Field()] = message(e)
	}
	return fe
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", e.Param())
		}
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", e.Param())
		}
		return fmt.Sprintf("must be at most %s", e.Param())
	case "gte":
		return fmt.Sprintf("must be %s or more", e.Param())
	case "lte":
		return fmt.Sprintf("must be %s or less", e.Param())
	case "eqfield":
		return "passwords do not match"
	case "alphanumunder":
		return "may only contain letters, numbers and underscores"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	case "pair":
		return fmt.Sprintf("is required when %s is set", e.Param())
	default:
		return fmt.Sprintf("failed %q validation", e.Tag())
	}
}
