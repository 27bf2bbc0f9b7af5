package cli

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentalscan/scanctl/internal/buildinfo"
	"github.com/dentalscan/scanctl/internal/errors"
	"github.com/dentalscan/scanctl/internal/i18n"
)

func TestFail(t *testing.T) {
	t.Parallel()
	ctx := NewContext(buildinfo.NewContext("test", ""))

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation text shown verbatim", errors.ValidationError("Passwords do not match"), "Passwords do not match"},
		{"conflict text shown verbatim", errors.ConflictError("An upload is already in progress"), "An upload is already in progress"},
		{"server message preferred", errors.RequestError("POST", "patient/diagnocat/send", 400, "Study not found"), "Study not found"},
		{"fallback without server text", errors.RequestError("GET", "patient/studies", 500, ""), i18n.MsgLoadStudiesFailed},
		{"network failure uses fallback", errors.NetworkError(fmt.Errorf("connection refused"), "http://localhost:8000", 0), i18n.MsgLoadStudiesFailed},
		{"unauthorized without teardown shows server text", errors.AuthError("POST", "login", 401, "Invalid email or password"), "Invalid email or password"},
		{"unauthorized without server text uses fallback", errors.AuthError("GET", "patient/studies", 401, ""), i18n.MsgLoadStudiesFailed},
		{"shown errors pass through", UserError("already shown"), "already shown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ctx.Fail(tt.err, i18n.MsgLoadStudiesFailed)
			require.Error(t, got)
			assert.Equal(t, tt.want, got.Error())
		})
	}

	assert.NoError(t, ctx.Fail(nil, i18n.MsgLoadStudiesFailed))
}

func TestFailKeepsCause(t *testing.T) {
	t.Parallel()
	cause := errors.RequestError("GET", "patient/studies", 500, "")
	got := NewContext(buildinfo.NewContext("test", "")).Fail(cause, i18n.MsgLoadStudiesFailed)
	assert.ErrorIs(t, got, cause)
}

func TestParseID(t *testing.T) {
	t.Parallel()
	ctx := NewContext(buildinfo.NewContext("test", ""))

	id, err := ctx.ParseID(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	for _, bad := range []string{"", "0", "-1", "abc", "1.5"} {
		_, err := ctx.ParseID(bad)
		assert.Error(t, err, bad)
	}
}

func TestPromptSharesReader(t *testing.T) {
	t.Parallel()
	in := bufio.NewReader(strings.NewReader("secret1\r\nsecret2"))
	var out bytes.Buffer

	first, err := Prompt(in, &out, "Password: ")
	require.NoError(t, err)
	second, err := Prompt(in, &out, "Confirm password: ")
	require.NoError(t, err)

	assert.Equal(t, "secret1", first)
	assert.Equal(t, "secret2", second)
	assert.Equal(t, "Password: Confirm password: ", out.String())

	_, err = Prompt(in, &out, "Again: ")
	assert.Error(t, err)
}
