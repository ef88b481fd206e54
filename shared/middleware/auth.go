package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go/service/cognitoidentityprovider/cognitoidentityprovideriface"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pavitra93/go-facility-platform/shared/models"
	"github.com/pavitra93/go-facility-platform/shared/tenancy"
	"github.com/pavitra93/go-facility-platform/shared/utils"
	"github.com/sirupsen/logrus"
)

const principalKey = "principal"

// TokenValidator verifies a raw token and returns its parsed form.
type TokenValidator interface {
	ValidateToken(tokenString string) (*jwt.Token, error)
}

// AuthMiddleware resolves the caller's Principal from a Cognito token.
type AuthMiddleware struct {
	cognito        cognitoidentityprovideriface.CognitoIdentityProviderAPI
	userPoolID     string
	validator      TokenValidator
	circuitBreaker *utils.CircuitBreaker
	cacheTTL       time.Duration
}

// CognitoClaims is the subset of Cognito claims the platform uses.
type CognitoClaims struct {
	Sub         string `json:"sub"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	Name        string `json:"name"`
	TokenUse    string `json:"token_use"`
	CustomOrgID string `json:"custom:org_id"`
	CustomRole  string `json:"custom:role"`
	ExpiresAt   int64  `json:"exp"`
}

// NewAuthMiddleware creates the middleware for a Cognito user pool.
func NewAuthMiddleware(region, userPoolID string) (*AuthMiddleware, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, err
	}

	return NewAuthMiddlewareWithValidator(
		utils.NewJWKSValidator(region, userPoolID),
		cognitoidentityprovider.New(sess),
		userPoolID,
	), nil
}

func NewAuthMiddlewareWithValidator(validator TokenValidator, cognito cognitoidentityprovideriface.CognitoIdentityProviderAPI, userPoolID string) *AuthMiddleware {
	return &AuthMiddleware{
		cognito:        cognito,
		userPoolID:     userPoolID,
		validator:      validator,
		circuitBreaker: utils.NewCircuitBreaker("cognito", 5, 30*time.Second),
		cacheTTL:       time.Hour,
	}
}

// RequireAuth rejects requests without a resolvable Principal.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			utils.UnauthorizedResponse(c, tenancy.ErrUnauthenticated.Error())
			c.Abort()
			return
		}

		claims, err := am.resolveClaims(c.Request.Context(), tokenString)
		if err != nil {
			logrus.WithError(err).Debug("Token rejected")
			utils.UnauthorizedResponse(c, tenancy.ErrUnauthenticated.Error())
			c.Abort()
			return
		}

		principal, err := claims.Principal()
		if err != nil {
			logrus.WithError(err).WithField("sub", claims.Sub).Warn("Token has no usable organisation")
			utils.UnauthorizedResponse(c, tenancy.ErrUnauthenticated.Error())
			c.Abort()
			return
		}

		SetPrincipal(c, principal)
		c.Next()
	}
}

// RequireRole allows only the listed roles. Must run after RequireAuth.
func (am *AuthMiddleware) RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := PrincipalFromContext(c)
		if err != nil {
			utils.UnauthorizedResponse(c, err.Error())
			c.Abort()
			return
		}

		for _, role := range roles {
			if p.Role == role {
				c.Next()
				return
			}
		}

		utils.ForbiddenResponse(c, fmt.Sprintf("Insufficient permissions for role %s", p.Role))
		c.Abort()
	}
}

// Principal converts claims into the caller identity. The organisation id
// becomes the tenant id.
func (cc *CognitoClaims) Principal() (*models.Principal, error) {
	tenantID, err := uuid.Parse(cc.CustomOrgID)
	if err != nil {
		return nil, fmt.Errorf("invalid custom:org_id %q: %w", cc.CustomOrgID, err)
	}

	role := models.UserRole(cc.CustomRole)
	switch role {
	case models.RoleManager, models.RoleStaff, models.RoleOccupant:
	default:
		role = models.RoleOccupant
	}

	name := cc.Name
	if name == "" {
		name = cc.Username
	}
	return &models.Principal{
		SubjectID:   cc.Sub,
		TenantID:    tenantID,
		DisplayName: name,
		Email:       cc.Email,
		Role:        role,
	}, nil
}

func getCacheKey(tokenString string) string {
	hash := sha256.Sum256([]byte(tokenString))
	return "claims:" + hex.EncodeToString(hash[:])
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return authHeader
}

// resolveClaims returns cached claims when present, otherwise verifies the
// token and fills missing attributes from Cognito.
func (am *AuthMiddleware) resolveClaims(ctx context.Context, tokenString string) (*CognitoClaims, error) {
	cacheKey := getCacheKey(tokenString)
	if cached, err := utils.CacheGet(ctx, cacheKey); err == nil {
		var claims CognitoClaims
		if err := json.Unmarshal([]byte(cached), &claims); err == nil && claims.ExpiresAt > time.Now().Unix() {
			return &claims, nil
		}
	}

	claims, err := am.validateToken(ctx, tokenString)
	if err != nil {
		return nil, err
	}

	ttl := am.cacheTTL
	if remaining := time.Until(time.Unix(claims.ExpiresAt, 0)); remaining < ttl {
		ttl = remaining
	}
	if ttl > 0 && claims.CustomOrgID != "" {
		if data, err := json.Marshal(claims); err == nil {
			_ = utils.CacheSet(ctx, cacheKey, string(data), ttl)
		}
	}
	return claims, nil
}

func (am *AuthMiddleware) validateToken(ctx context.Context, tokenString string) (*CognitoClaims, error) {
	token, err := am.validator.ValidateToken(tokenString)
	if err != nil {
		return nil, fmt.Errorf("JWKS validation failed: %w", err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims format")
	}

	claims := &CognitoClaims{
		Sub:         getClaimString(mapClaims, "sub"),
		Email:       getClaimString(mapClaims, "email"),
		Username:    getClaimString(mapClaims, "cognito:username"),
		Name:        getClaimString(mapClaims, "name"),
		TokenUse:    getClaimString(mapClaims, "token_use"),
		CustomOrgID: getClaimString(mapClaims, "custom:org_id"),
		CustomRole:  getClaimString(mapClaims, "custom:role"),
	}
	if claims.Username == "" {
		claims.Username = getClaimString(mapClaims, "username")
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Unix()
	}

	if claims.TokenUse != "access" && claims.TokenUse != "id" {
		return nil, fmt.Errorf("invalid token use: expected 'access' or 'id', got '%s'", claims.TokenUse)
	}

	// access tokens carry no custom attributes
	if claims.CustomOrgID == "" || claims.Name == "" {
		if err := am.fillFromCognito(ctx, claims); err != nil {
			return nil, err
		}
	}
	return claims, nil
}

func (am *AuthMiddleware) fillFromCognito(ctx context.Context, claims *CognitoClaims) error {
	if am.cognito == nil {
		if claims.CustomOrgID == "" {
			return fmt.Errorf("token has no custom:org_id and no user pool lookup is configured")
		}
		return nil
	}

	username := claims.Username
	if username == "" {
		username = claims.Sub
	}

	var out *cognitoidentityprovider.AdminGetUserOutput
	err := am.circuitBreaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		out, err = am.cognito.AdminGetUserWithContext(ctx, &cognitoidentityprovider.AdminGetUserInput{
			UserPoolId: aws.String(am.userPoolID),
			Username:   aws.String(username),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to get user from Cognito: %w", err)
	}

	for _, attr := range out.UserAttributes {
		name, value := aws.StringValue(attr.Name), aws.StringValue(attr.Value)
		switch {
		case name == "custom:org_id" && claims.CustomOrgID == "":
			claims.CustomOrgID = value
		case name == "custom:role" && claims.CustomRole == "":
			claims.CustomRole = value
		case name == "name" && claims.Name == "":
			claims.Name = value
		case name == "email" && claims.Email == "":
			claims.Email = value
		}
	}
	return nil
}

func getClaimString(claims jwt.MapClaims, key string) string {
	if val, ok := claims[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// SetPrincipal stores p on the request along with the flat identity keys.
func SetPrincipal(c *gin.Context, p *models.Principal) {
	c.Set(principalKey, p)
	c.Set("user_id", p.SubjectID)
	c.Set("email", p.Email)
	c.Set("tenant_id", p.TenantID.String())
	c.Set("role", string(p.Role))
}

// PrincipalFromContext returns the Principal resolved by RequireAuth.
func PrincipalFromContext(c *gin.Context) (*models.Principal, error) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, tenancy.ErrUnauthenticated
	}
	p, ok := v.(*models.Principal)
	if !ok || p == nil {
		return nil, tenancy.ErrUnauthenticated
	}
	return p, nil
}
