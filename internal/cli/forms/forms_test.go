package forms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func TestValidate_LoginForm(t *testing.T) {
	fe := Validate(LoginForm{})
	assert.Equal(t, "is required", fe["email"])
	assert.Equal(t, "is required", fe["password"])

	fe = Validate(LoginForm{Email: "not-an-email", Password: "x"})
	assert.Equal(t, FieldErrors{"email": "must be a valid email address"}, fe)

	fe = Validate(LoginForm{Email: "jon@example.com", Password: "x"})
	assert.Empty(t, fe)
	assert.NoError(t, fe.Err())
}

func TestValidate_RegisterForm(t *testing.T) {
	valid := RegisterForm{
		Username:        "jon_snow",
		Email:           "jon@example.com",
		Password:        "winter",
		ConfirmPassword: "winter",
	}
	assert.Empty(t, Validate(valid))

	tests := []struct {
		name  string
		edit  func(*RegisterForm)
		field string
		msg   string
	}{
		{"short username", func(f *RegisterForm) { f.Username = "jo" }, "username", "must be at least 3 characters"},
		{"username charset", func(f *RegisterForm) { f.Username = "jon-snow" }, "username", "may only contain letters, numbers and underscores"},
		{"short password", func(f *RegisterForm) { f.Password, f.ConfirmPassword = "abc", "abc" }, "password", "must be at least 6 characters"},
		{"mismatch", func(f *RegisterForm) { f.ConfirmPassword = "summer" }, "confirm_password", "passwords do not match"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := valid
			tt.edit(&form)
			fe := Validate(form)
			assert.Equal(t, tt.msg, fe[tt.field])
		})
	}
}

func TestValidate_PostForm(t *testing.T) {
	valid := PostForm{Title: "Winterfell", Content: "Cold."}
	assert.Empty(t, Validate(valid))

	withCoords := valid
	withCoords.Latitude, withCoords.Longitude = ptr(54.6), ptr(-5.9)
	assert.Empty(t, Validate(withCoords))

	outOfRange := valid
	outOfRange.Latitude, outOfRange.Longitude = ptr(91), ptr(181)
	fe := Validate(outOfRange)
	assert.Equal(t, "must be 90 or less", fe["latitude"])
	assert.Equal(t, "must be 180 or less", fe["longitude"])

	half := valid
	half.Latitude = ptr(10)
	fe = Validate(half)
	assert.Equal(t, "is required when latitude is set", fe["longitude"])

	badURL := valid
	badURL.ImageURL = "not a url"
	assert.Equal(t, "must be a valid URL", Validate(badURL)["image_url"])

	fe = Validate(PostForm{})
	assert.Contains(t, fe, "title")
	assert.Contains(t, fe, "content")
}

func TestValidate_RoleForm(t *testing.T) {
	assert.Empty(t, Validate(RoleForm{Role: "admin"}))
	assert.Equal(t, "must be one of: user admin", Validate(RoleForm{Role: "king"})["role"])
}

func TestFieldErrors_Error(t *testing.T) {
	fe := FieldErrors{"password": "is required", "email": "is required"}
	err := fe.Err()
	require.Error(t, err)
	assert.Equal(t, "email: is required; password: is required", err.Error())
}

func TestRegisterForm_RegistrationTrims(t *testing.T) {
	reg := RegisterForm{Username: " jon ", Email: " jon@example.com ", Password: " pw "}.Registration()
	assert.Equal(t, "jon", reg.Username)
	assert.Equal(t, "jon@example.com", reg.Email)
	assert.Equal(t, " pw ", reg.Password)
}
