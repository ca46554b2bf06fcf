package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubPassword(t *testing.T, pw string, err error) {
	t.Helper()
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	readPassword = func(int) ([]byte, error) {
		if err != nil {
			return nil, err
		}
		return []byte(pw), nil
	}
}

func TestGetPassword(t *testing.T) {
	stubPassword(t, "secret-password", nil)

	var out bytes.Buffer
	got, err := GetPassword(&out, "Enter password: ")
	require.NoError(t, err)
	assert.Equal(t, "secret-password", got)
	assert.Equal(t, "Enter password: \n", out.String())
}

func TestGetPassword_Error(t *testing.T) {
	stubPassword(t, "", errors.New("boom"))

	var out bytes.Buffer
	_, err := GetPassword(&out, "Enter password: ")
	assert.ErrorContains(t, err, "boom")
}

func TestWipe(t *testing.T) {
	b := []byte("secret")
	wipe(b)
	assert.Equal(t, make([]byte, 6), b)
	wipe(nil)
}
