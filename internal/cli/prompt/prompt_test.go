package prompt

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLines(t *testing.T) {
	p := NewLines(strings.NewReader("jon@example.com\n\nwinter\r\nyes\n2\nadmin\n"), nil)

	v, err := p.Input("Email", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "jon@example.com", v)

	v, err = p.Input("Title", "Untitled", nil)
	require.NoError(t, err)
	assert.Equal(t, "Untitled", v)

	v, err = p.Secret("Password")
	require.NoError(t, err)
	assert.Equal(t, "winter", v)

	ok, err := p.Confirm("Delete?")
	require.NoError(t, err)
	assert.True(t, ok)

	idx, err := p.Select("Role", []string{"user", "admin"})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	idx, err = p.Select("Role", []string{"user", "admin"})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	_, err = p.Input("More", "", nil)
	assert.ErrorIs(t, err, ErrAborted)
}

func TestLines_Validate(t *testing.T) {
	p := NewLines(strings.NewReader("abc\n"), nil)
	_, err := p.Input("ID", "", func(s string) error { return errors.New("not a number") })
	assert.EqualError(t, err, "not a number")
}

func TestLines_EchoesLabels(t *testing.T) {
	var out strings.Builder
	p := NewLines(strings.NewReader("x\n"), &out)
	_, err := p.Input("Email", "", nil)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Email: ")
}

func TestNonInteractive(t *testing.T) {
	var p Prompter = NonInteractive{}
	_, err := p.Secret("Password")
	assert.ErrorIs(t, err, ErrNonInteractive)
	assert.Contains(t, err.Error(), "Password")
}
