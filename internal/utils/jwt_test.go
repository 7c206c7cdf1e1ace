package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("s3cret", 42, "car_owner", time.Minute)
	require.NoError(t, err)

	claims, err := ParseAccessToken("s3cret", tok.Token)
	require.NoError(t, err)
	require.Equal(t, "car_owner", claims.Role)
	uid, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, uint64(42), uid)
}

func TestParseAccessTokenRejects(t *testing.T) {
	tok, err := NewAccessToken("s3cret", 7, "building_owner", time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken("other", tok.Token)
	require.Error(t, err)

	expired, err := NewAccessToken("s3cret", 7, "building_owner", -time.Minute)
	require.NoError(t, err)
	_, err = ParseAccessToken("s3cret", expired.Token)
	require.Error(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, SessionClaims{Role: "building_owner"})
	raw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseAccessToken("s3cret", raw)
	require.Error(t, err)
}

func TestHashRefreshRawIsStable(t *testing.T) {
	rt, err := NewRefreshToken(time.Hour)
	require.NoError(t, err)
	require.Len(t, rt.Raw, 96)
	require.Equal(t, HashRefreshRaw(rt.Raw), HashRefreshRaw(rt.Raw))
	require.NotEqual(t, rt.Raw, HashRefreshRaw(rt.Raw))
}
