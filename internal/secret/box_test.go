package secret_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docintake/internal/secret"
)

func TestBox_RoundTrip(t *testing.T) {
	box, err := secret.NewBox("passphrase")
	require.NoError(t, err)

	sealed, err := box.Seal("sk-ant-123", "default/analysis")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "sk-ant-123")

	plain, err := box.Open(sealed, "default/analysis")
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-123", plain)
}

func TestBox_NonceMakesSealsDiffer(t *testing.T) {
	box, _ := secret.NewBox("passphrase")
	a, _ := box.Seal("same", "l")
	b, _ := box.Seal("same", "l")
	assert.NotEqual(t, a, b)
}

func TestBox_WrongLabelOrKeyFails(t *testing.T) {
	box, _ := secret.NewBox("passphrase")
	other, _ := secret.NewBox("different")
	sealed, _ := box.Seal("value", "profile-a")

	_, err := box.Open(sealed, "profile-b")
	assert.ErrorIs(t, err, secret.ErrMalformed)

	_, err = other.Open(sealed, "profile-a")
	assert.ErrorIs(t, err, secret.ErrMalformed)

	_, err = box.Open("!!not-base64!!", "profile-a")
	assert.ErrorIs(t, err, secret.ErrMalformed)
}

func TestBox_Empty(t *testing.T) {
	box, _ := secret.NewBox("p")
	sealed, err := box.Seal("", "l")
	require.NoError(t, err)
	assert.Equal(t, "", sealed)

	plain, err := box.Open("", "l")
	require.NoError(t, err)
	assert.Equal(t, "", plain)

	_, err = secret.NewBox("")
	assert.Error(t, err)
}
