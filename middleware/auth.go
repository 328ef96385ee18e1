package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/cashx/models"
	"github.com/cppla/cashx/services"
	"github.com/cppla/cashx/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
	ContextRoleKey     = "role"
	// ContextAccountKey holds the *models.Account loaded by the session guard.
	// It is absent for the out-of-band administrator.
	ContextAccountKey = "account"
	ContextTokenKey   = "token"
	ContextClaimsKey  = "claims"
)

// credentialError is an ErrUnauthenticated carrying the business code for
// the particular way the credential was missing or garbled.
type credentialError struct {
	code int
	msg  string
}

func (e *credentialError) Error() string        { return e.msg }
func (e *credentialError) Is(target error) bool { return target == services.ErrUnauthenticated }

func unauthenticated(code int, msg string) error { return &credentialError{code: code, msg: msg} }

func bearerToken(ctx *gin.Context) (string, error) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return "", unauthenticated(40101, "authorization header missing")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", unauthenticated(40102, "invalid authorization header format")
	}
	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		return "", unauthenticated(40103, "empty bearer token")
	}
	return tokenString, nil
}

// authenticate resolves the request credential into claims and, for account
// sessions, the account it belongs to.
func authenticate(ctx *gin.Context, issuer *utils.TokenIssuer, guard *services.SessionGuard) (string, *utils.Claims, *models.Account, error) {
	tokenString, err := bearerToken(ctx)
	if err != nil {
		return "", nil, nil, err
	}
	if utils.IsTokenRevoked(tokenString) {
		return "", nil, nil, unauthenticated(40104, "token revoked")
	}
	claims, err := issuer.Parse(tokenString)
	if err != nil {
		return "", nil, nil, unauthenticated(40105, "invalid token")
	}
	acc, err := guard.Authorize(ctx.Request.Context(), services.Identity{
		SubjectID:          claims.UserID,
		Username:           claims.Username,
		Role:               claims.Role,
		SessionFingerprint: claims.SessionID,
	})
	if err != nil {
		return "", claims, nil, err
	}
	return tokenString, claims, acc, nil
}

// abortAuth writes the envelope for an authentication failure.
func abortAuth(ctx *gin.Context, claims *utils.Claims, err error) {
	var cred *credentialError
	switch {
	case errors.As(err, &cred):
		utils.Error(ctx, http.StatusUnauthorized, cred.code, cred.msg)
	case errors.Is(err, services.ErrUnauthenticated):
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
	case errors.Is(err, services.ErrSessionInvalidated):
		utils.Error(ctx, http.StatusUnauthorized, 40120, "you have been signed in on another device")
	case errors.Is(err, services.ErrSessionInvalid):
		utils.Error(ctx, http.StatusUnauthorized, 40121, "session invalid, please sign in again")
	case errors.Is(err, services.ErrNotFound):
		utils.Error(ctx, http.StatusUnauthorized, 40106, "account not found")
	default:
		var userID uint
		if claims != nil {
			userID = claims.UserID
		}
		utils.Sugar.Errorf("session guard failed user_id=%d err=%v", userID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to verify session")
	}
	ctx.Abort()
}

// AuthRequired verifies the bearer credential and then runs the session guard,
// so a token from a replaced login is rejected even while unexpired.
func AuthRequired(issuer *utils.TokenIssuer, guard *services.SessionGuard) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, claims, acc, err := authenticate(ctx, issuer, guard)
		if err != nil {
			abortAuth(ctx, claims, err)
			return
		}

		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextUsernameKey, claims.Username)
		ctx.Set(ContextRoleKey, claims.Role)
		ctx.Set(ContextTokenKey, tokenString)
		ctx.Set(ContextClaimsKey, claims)
		if acc != nil {
			ctx.Set(ContextAccountKey, acc)
		}
		ctx.Next()
	}
}

// RequireAdmin allows only role=admin credentials through.
func RequireAdmin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.GetString(ContextRoleKey) != models.RoleAdmin {
			utils.Error(ctx, http.StatusForbidden, 40301, "admin only")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// RequireAccount rejects identities that have no account behind them.
func RequireAccount() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if _, ok := ctx.Get(ContextAccountKey); !ok {
			utils.Error(ctx, http.StatusForbidden, 40302, "an account session is required")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}
