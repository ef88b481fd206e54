package utils

import (
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JWK represents a JSON Web Key
type JWK struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKS represents a JSON Web Key Set
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWKSValidator verifies RS256 tokens against a JWKS endpoint. Keys are
// refreshed daily, or on an unknown kid at most once per minute.
type JWKSValidator struct {
	jwksURL    string
	issuer     string
	http       *resty.Client
	refreshTTL time.Duration
	missTTL    time.Duration

	mutex       sync.RWMutex
	keys        map[string]*rsa.PublicKey
	lastRefresh time.Time
}

// NewJWKSValidator creates a validator for a Cognito user pool.
func NewJWKSValidator(region, userPoolID string) *JWKSValidator {
	issuer := fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", region, userPoolID)
	v := NewJWKSValidatorForURL(issuer+"/.well-known/jwks.json", issuer)
	_ = v.refreshKeys(false)
	return v
}

// NewJWKSValidatorForURL creates a validator for any JWKS endpoint. An empty
// issuer disables the issuer check.
func NewJWKSValidatorForURL(jwksURL, issuer string) *JWKSValidator {
	return &JWKSValidator{
		jwksURL:    jwksURL,
		issuer:     issuer,
		http:       resty.New().SetTimeout(5 * time.Second).SetRetryCount(2),
		refreshTTL: 24 * time.Hour,
		missTTL:    time.Minute,
		keys:       make(map[string]*rsa.PublicKey),
	}
}

func (v *JWKSValidator) refreshKeys(onMiss bool) error {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	ttl := v.refreshTTL
	if onMiss {
		ttl = v.missTTL
	}
	if !v.lastRefresh.IsZero() && time.Since(v.lastRefresh) < ttl {
		return nil
	}

	var jwks JWKS
	resp, err := v.http.R().SetResult(&jwks).Get(v.jwksURL)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode())
	}

	newKeys := make(map[string]*rsa.PublicKey)
	for _, jwk := range jwks.Keys {
		if jwk.Kty != "RSA" {
			continue
		}
		pubKey, err := jwkToRSAPublicKey(jwk)
		if err != nil {
			continue
		}
		newKeys[jwk.Kid] = pubKey
	}

	v.keys = newKeys
	v.lastRefresh = time.Now()
	return nil
}

func jwkToRSAPublicKey(jwk JWK) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(jwk.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode N: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(jwk.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode E: %w", err)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(new(big.Int).SetBytes(eBytes).Int64()),
	}, nil
}

// GetKey returns the public key for the given key ID
func (v *JWKSValidator) GetKey(kid string) (*rsa.PublicKey, error) {
	v.mutex.RLock()
	key, exists := v.keys[kid]
	v.mutex.RUnlock()
	if exists {
		return key, nil
	}

	if err := v.refreshKeys(true); err != nil {
		return nil, fmt.Errorf("failed to refresh keys: %w", err)
	}

	v.mutex.RLock()
	key, exists = v.keys[kid]
	v.mutex.RUnlock()
	if !exists {
		return nil, fmt.Errorf("key with kid %s not found", kid)
	}
	return key, nil
}

// ValidateToken verifies signature, expiry and issuer.
func (v *JWKSValidator) ValidateToken(tokenString string) (*jwt.Token, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"RS256"}), jwt.WithExpirationRequired()}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, fmt.Errorf("kid not found in token header")
		}
		return v.GetKey(kid)
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is invalid")
	}
	return token, nil
}
