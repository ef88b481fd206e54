package utils

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://cognito-idp.eu-west-1.amazonaws.com/eu-west-1_test"

func jwksServer(t *testing.T, key *rsa.PrivateKey, kid string, hits *int32) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/.well-known/jwks.json", func(c *gin.Context) {
		atomic.AddInt32(hits, 1)
		c.JSON(http.StatusOK, JWKS{Keys: []JWK{{
			Kid: kid,
			Kty: "RSA",
			Alg: "RS256",
			Use: "sig",
			N:   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
		}}})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func signToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestJWKSValidatorAcceptsSignedToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	var hits int32
	srv := jwksServer(t, key, "k1", &hits)

	v := NewJWKSValidatorForURL(srv.URL+"/.well-known/jwks.json", testIssuer)
	tokenString := signToken(t, key, "k1", jwt.MapClaims{
		"sub":           "user-1",
		"iss":           testIssuer,
		"exp":           time.Now().Add(time.Hour).Unix(),
		"custom:org_id": "org",
	})

	token, err := v.ValidateToken(tokenString)
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "user-1", claims["sub"])

	_, err = v.ValidateToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestJWKSValidatorRejectsBadTokens(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	var hits int32
	srv := jwksServer(t, key, "k1", &hits)
	v := NewJWKSValidatorForURL(srv.URL+"/.well-known/jwks.json", testIssuer)

	valid := jwt.MapClaims{"sub": "u", "iss": testIssuer, "exp": time.Now().Add(time.Hour).Unix()}

	tests := []struct {
		name  string
		token string
	}{
		{"wrong key", signToken(t, other, "k1", valid)},
		{"unknown kid", signToken(t, key, "k2", valid)},
		{"expired", signToken(t, key, "k1", jwt.MapClaims{"sub": "u", "iss": testIssuer, "exp": time.Now().Add(-time.Hour).Unix()})},
		{"wrong issuer", signToken(t, key, "k1", jwt.MapClaims{"sub": "u", "iss": "https://evil", "exp": time.Now().Add(time.Hour).Unix()})},
		{"no expiry", signToken(t, key, "k1", jwt.MapClaims{"sub": "u", "iss": testIssuer})},
		{"garbage", "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.ValidateToken(tt.token)
			assert.Error(t, err)
		})
	}
}
