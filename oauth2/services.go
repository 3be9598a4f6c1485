package oauth2

import (
	"context"
	"errors"
)

// ErrNotFound is returned by every service lookup method that found no
// matching resource, mirroring the storage layer's own not-found
// sentinel.
var ErrNotFound = errors.New("oauth2: not found")

// ClientService resolves client identifiers to Client records. It is the
// transport layer's collaborator for client lookup; auth-method dispatch
// happens upstream of this core (§9 open question).
type ClientService interface {
	FindClient(ctx context.Context, id string) (Client, error)
}

// UserService resolves resource-owner identities. It is consulted only by
// the password grant; response-type handlers receive an already
// authenticated User from the caller instead.
type UserService interface {
	FindByResourceOwnerCredentials(ctx context.Context, username, password string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
}

// AuthorizationCodeService persists and revokes authorization-code
// records on behalf of the code response type and authorization_code
// grant.
type AuthorizationCodeService interface {
	CreateAuthorizationCode(ctx context.Context, params AuthorizationCode) (AuthorizationCode, error)
	FindAuthorizationCode(ctx context.Context, code string) (AuthorizationCode, error)
	RevokeAuthorizationCode(ctx context.Context, code string) error
}

// AccessTokenService persists access tokens. Every grant and response-type
// handler that issues a token calls CreateAccessToken.
type AccessTokenService interface {
	CreateAccessToken(ctx context.Context, scopes []string, client Client, user *User) (AccessToken, error)
	FindAccessToken(ctx context.Context, token string) (AccessToken, error)
	RevokeAccessToken(ctx context.Context, token string) error
}

// RefreshTokenService persists and rotates refresh tokens. A nil
// RefreshTokenService disables refresh-token issuance for every grant
// that would otherwise offer it (§4.9.1, §4.9.3).
type RefreshTokenService interface {
	CreateRefreshToken(ctx context.Context, scopes []string, client Client, user User) (RefreshToken, error)
	FindRefreshToken(ctx context.Context, token string) (RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, token string) error
}

// Services bundles the collaborators a Server needs. RefreshTokens is
// optional; a nil value disables refresh-token issuance everywhere.
// DeviceAuthorizations is optional too; a nil value means the device
// authorization grant (RFC 8628) is not offered.
type Services struct {
	Clients              ClientService
	Users                UserService
	AuthorizationCodes   AuthorizationCodeService
	AccessTokens         AccessTokenService
	RefreshTokens        RefreshTokenService
	DeviceAuthorizations DeviceAuthorizationService
}
