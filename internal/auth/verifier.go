package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/meetsync/signal-server/internal/domain"
	"github.com/meetsync/signal-server/internal/repository"
	"github.com/meetsync/signal-server/pkg/jwt"
	"github.com/meetsync/signal-server/pkg/log"
)

// ErrUnauthorized is the single failure surfaced to unauthenticated
// connections. The handshake is refused before any signaling state exists.
var ErrUnauthorized = errors.New("unauthorized")

const bearerPrefix = "Bearer "

// TokenValidator validates an access token and returns its claims.
type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// Verifier validates bearer credentials presented at connection time and
// resolves them into verified identities.
type Verifier struct {
	tokens TokenValidator
	users  repository.UserRepository
}

// NewVerifier creates an identity verifier.
func NewVerifier(tokens TokenValidator, users repository.UserRepository) *Verifier {
	return &Verifier{tokens: tokens, users: users}
}

// CredentialFromRequest extracts the bearer credential from the
// Authorization header or, for browser WebSocket clients that cannot set
// headers, from the token query parameter.
func CredentialFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, bearerPrefix) {
		return strings.TrimPrefix(header, bearerPrefix)
	}
	return r.URL.Query().Get("token")
}

// VerifyRequest authenticates an incoming handshake request.
func (v *Verifier) VerifyRequest(ctx context.Context, r *http.Request) (domain.Identity, error) {
	return v.VerifyToken(ctx, CredentialFromRequest(r))
}

// VerifyToken validates a bearer token and confirms its subject still
// exists in the user store. Every failure maps to ErrUnauthorized.
func (v *Verifier) VerifyToken(ctx context.Context, token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, ErrUnauthorized
	}

	claims, err := v.tokens.ValidateToken(token)
	if err != nil {
		log.Ctx(ctx).Debug().Err(err).Msg("token validation failed")
		return domain.Identity{}, ErrUnauthorized
	}

	identity, err := v.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			log.Ctx(ctx).Error().Err(err).Str(log.FieldUserID, claims.UserID).Msg("user lookup failed")
		}
		return domain.Identity{}, ErrUnauthorized
	}

	return identity, nil
}
