package oauth2

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(svc *memServices, now time.Time) *Server {
	registry := NewRegistry()
	registry.RegisterGrant(ClientCredentialsGrant{})
	registry.RegisterGrant(RefreshTokenGrant{Rotate: true})
	registry.RegisterGrant(AuthorizationCodeGrant{})
	registry.RegisterResponseType(CodeResponseType{})

	return &Server{
		Registry: registry,
		Services: svc.services(),
		Scopes:   NewScopeHandler([]string{"openid"}),
		Now:      func() time.Time { return now },
	}
}

func TestServerHandleTokenDispatchesByGrantType(t *testing.T) {
	svc := newMemServices()
	client := Client{ID: "c1", AllowedGrants: []string{"client_credentials"}, Scopes: []string{"openid"}}
	svc.clients[client.ID] = client

	srv := newTestServer(svc, time.Now())
	resp, err := srv.HandleToken(Context{Context: context.Background()}, map[string]string{"grant_type": "client_credentials"}, client)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestServerHandleTokenRejectsDisallowedGrant(t *testing.T) {
	svc := newMemServices()
	client := Client{ID: "c1", AllowedGrants: []string{"refresh_token"}, Scopes: []string{"openid"}}
	svc.clients[client.ID] = client

	srv := newTestServer(svc, time.Now())
	_, err := srv.HandleToken(Context{Context: context.Background()}, map[string]string{"grant_type": "client_credentials"}, client)
	require.Error(t, err)
	assert.Equal(t, KindUnauthorizedClient, err.(*Error).Kind)
}

func TestServerHandleAuthorizationDispatchesByResponseType(t *testing.T) {
	svc := newMemServices()
	client := Client{ID: "c1", ResponseTypes: []string{"code"}, RedirectURIs: []string{"https://app.example/cb"}, Scopes: []string{"openid"}}
	svc.clients[client.ID] = client

	srv := newTestServer(svc, time.Now())
	resp, err := srv.HandleAuthorization(Context{Context: context.Background()}, AuthorizationParams{
		ResponseType: "code",
		RedirectURI:  "https://app.example/cb",
	}, client, User{ID: "user-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Code)
}

type capturingLogger struct{ lines []string }

func (c *capturingLogger) Debug(args ...interface{})                 {}
func (c *capturingLogger) Info(args ...interface{})                  {}
func (c *capturingLogger) Warn(args ...interface{})                  {}
func (c *capturingLogger) Error(args ...interface{})                 {}
func (c *capturingLogger) Debugf(format string, args ...interface{}) {}
func (c *capturingLogger) Infof(format string, args ...interface{})  {}
func (c *capturingLogger) Warnf(format string, args ...interface{})  {}
func (c *capturingLogger) Errorf(format string, args ...interface{}) {
	c.lines = append(c.lines, format)
}

func TestServerLogsOnlyServerErrors(t *testing.T) {
	svc := newMemServices()
	client := Client{ID: "c1", AllowedGrants: []string{"refresh_token"}, Scopes: []string{"openid"}}
	svc.clients[client.ID] = client

	srv := newTestServer(svc, time.Now())
	logger := &capturingLogger{}
	srv.Logger = logger

	// invalid_grant (ordinary client mistake): must not be logged.
	_, _ = srv.HandleToken(Context{Context: context.Background()}, map[string]string{
		"grant_type": "refresh_token", "refresh_token": "does-not-exist",
	}, client)
	assert.Empty(t, logger.lines)

	// server_error (a genuine backend failure): must be logged.
	broken := *srv
	broken.Services.AccessTokens = failingAccessTokens{}
	registry := NewRegistry()
	registry.RegisterGrant(ClientCredentialsGrant{})
	broken.Registry = registry
	broken.Logger = logger
	cc := Client{ID: "c2", AllowedGrants: []string{"client_credentials"}, Scopes: []string{"openid"}}
	_, err := broken.HandleToken(Context{Context: context.Background()}, map[string]string{"grant_type": "client_credentials"}, cc)
	require.Error(t, err)
	assert.Equal(t, KindServerError, err.(*Error).Kind)
	assert.NotEmpty(t, logger.lines)
}

type failingAccessTokens struct{}

func (failingAccessTokens) CreateAccessToken(ctx context.Context, scopes []string, client Client, user *User) (AccessToken, error) {
	return AccessToken{}, errBackend
}
func (failingAccessTokens) FindAccessToken(ctx context.Context, token string) (AccessToken, error) {
	return AccessToken{}, ErrNotFound
}
func (failingAccessTokens) RevokeAccessToken(ctx context.Context, token string) error { return nil }

var errBackend = stringError("backend unavailable")

type stringError string

func (e stringError) Error() string { return string(e) }

func TestServerHandleAuthorizationRejectsUnregisteredRedirectURI(t *testing.T) {
	svc := newMemServices()
	client := Client{ID: "c1", ResponseTypes: []string{"code"}, RedirectURIs: []string{"https://app.example/cb"}}
	svc.clients[client.ID] = client

	srv := newTestServer(svc, time.Now())
	_, err := srv.HandleAuthorization(Context{Context: context.Background()}, AuthorizationParams{
		ResponseType: "code",
		RedirectURI:  "https://evil.example/cb",
		State:        "xyz",
	}, client, User{ID: "user-1"})
	require.Error(t, err)
	assert.Equal(t, KindInvalidRequest, err.(*Error).Kind)
	assert.Equal(t, "xyz", err.(*Error).State)
}
