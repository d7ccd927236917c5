package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentTokenRoundTrip(t *testing.T) {
	signer := NewSigner("secret", "onprem-cd")

	token, err := signer.GenerateAgentToken(42, "0b9c3c9e-5a3e-4a43-9d1e-1f0c7c9f2d11", "tok-1")
	require.NoError(t, err)

	claims, err := signer.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.SubscriberID)
	assert.Equal(t, "0b9c3c9e-5a3e-4a43-9d1e-1f0c7c9f2d11", claims.Subject)
	assert.Equal(t, "tok-1", claims.ID)
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	token, err := NewSigner("other", "onprem-cd").GenerateAgentToken(1, "u", "t")
	require.NoError(t, err)

	_, err = NewSigner("secret", "onprem-cd").ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsForeignIssuer(t *testing.T) {
	token, err := NewSigner("secret", "someone-else").GenerateAgentToken(1, "u", "t")
	require.NoError(t, err)

	_, err = NewSigner("secret", "onprem-cd").ParseToken(token)
	assert.Error(t, err)
}
