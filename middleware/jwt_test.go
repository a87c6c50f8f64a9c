package middleware

import (
	"testing"
	"time"

	"github.com/orbstation/portal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret-32bytes-padded!!"

func TestGenerateToken_Valid(t *testing.T) {
	tok, err := GenerateToken("42", "steve", identity.Linked("steve123"), testSecret, time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
}

func TestParseToken_RoundTrip(t *testing.T) {
	tok, err := GenerateToken("42", "steve", identity.Linked("steve123"), testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(tok, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "steve", claims.Name)
	assert.Equal(t, identity.Linked("steve123"), claims.Link)
}

func TestParseToken_PreservesLinkState(t *testing.T) {
	for _, link := range []identity.Link{
		identity.Unresolved(),
		identity.Unlinked(),
		identity.Linked("steve123"),
	} {
		tok, err := GenerateToken("42", "", link, testSecret, time.Hour)
		require.NoError(t, err)
		claims, err := ParseToken(tok, testSecret)
		require.NoError(t, err)
		assert.Equal(t, link, claims.Link)
	}
}

func TestGenerateToken_NormalizesZeroLink(t *testing.T) {
	tok, err := GenerateToken("42", "", identity.Link{}, testSecret, time.Hour)
	require.NoError(t, err)
	claims, err := ParseToken(tok, testSecret)
	require.NoError(t, err)
	assert.Equal(t, identity.Unresolved(), claims.Link)
}

func TestParseToken_WrongSecret(t *testing.T) {
	tok, err := GenerateToken("1", "", identity.Unlinked(), testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(tok, "wrong-secret")
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	tok, err := GenerateToken("1", "", identity.Unlinked(), testSecret, -time.Second)
	require.NoError(t, err)

	_, err = ParseToken(tok, testSecret)
	assert.Error(t, err)
}

func TestParseToken_Malformed(t *testing.T) {
	_, err := ParseToken("not.a.jwt", testSecret)
	assert.Error(t, err)
}

func TestParseToken_Empty(t *testing.T) {
	_, err := ParseToken("", testSecret)
	assert.Error(t, err)
}
