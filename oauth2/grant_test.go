package oauth2

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizationCodeGrantHappyPath(t *testing.T) {
	svc := newMemServices()
	client := Client{ID: "c1", AllowedGrants: []string{"authorization_code", "refresh_token"}, RedirectURIs: []string{"https://app.example/cb"}, Scopes: []string{"openid"}}
	svc.clients[client.ID] = client
	user := User{ID: "user-1"}

	verifier := "verifier-value-thats-long-enough"
	sum := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(sum[:])

	now := time.Now()
	ctx := testContext(svc, now)
	_, err := svc.CreateAuthorizationCode(ctx, AuthorizationCode{
		Code:                "abc123",
		RedirectURI:         "https://app.example/cb",
		Scopes:              []string{"openid"},
		CodeChallenge:       challenge,
		CodeChallengeMethod: "S256",
		IssuedAt:            now,
		ValidAfter:          now,
		ExpiresAt:           now.Add(time.Minute),
		Client:              client,
		User:                user,
	})
	require.NoError(t, err)

	grant := AuthorizationCodeGrant{}
	params := map[string]string{
		"code":          "abc123",
		"redirect_uri":  "https://app.example/cb",
		"code_verifier": verifier,
	}
	resp, err := grant.Handle(ctx, params, client)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	// A second redemption of the same code must fail: it was revoked on
	// the first lookup (§8 invariant 5).
	_, err = grant.Handle(ctx, params, client)
	require.Error(t, err)
	assert.Equal(t, KindInvalidGrant, err.(*Error).Kind)
}

func TestAuthorizationCodeGrantRejectsBadVerifier(t *testing.T) {
	svc := newMemServices()
	client := Client{ID: "c1", AllowedGrants: []string{"authorization_code"}, RedirectURIs: []string{"https://app.example/cb"}}
	svc.clients[client.ID] = client
	user := User{ID: "user-1"}

	now := time.Now()
	ctx := testContext(svc, now)
	sum := sha256.Sum256([]byte("correct-verifier"))
	challenge := base64.RawURLEncoding.EncodeToString(sum[:])
	_, err := svc.CreateAuthorizationCode(ctx, AuthorizationCode{
		Code: "xyz", RedirectURI: "https://app.example/cb", CodeChallenge: challenge,
		CodeChallengeMethod: "S256", ValidAfter: now, ExpiresAt: now.Add(time.Minute),
		Client: client, User: user,
	})
	require.NoError(t, err)

	grant := AuthorizationCodeGrant{}
	_, err = grant.Handle(ctx, map[string]string{
		"code": "xyz", "redirect_uri": "https://app.example/cb", "code_verifier": "wrong-verifier",
	}, client)
	require.Error(t, err)
	assert.Equal(t, KindInvalidGrant, err.(*Error).Kind)
}

func TestRefreshTokenGrantRotation(t *testing.T) {
	svc := newMemServices()
	client := Client{ID: "c1", AllowedGrants: []string{"refresh_token"}, Scopes: []string{"openid"}}
	svc.clients[client.ID] = client
	user := User{ID: "user-1"}

	now := time.Now()
	ctx := testContext(svc, now)
	rt, err := svc.CreateRefreshToken(ctx, []string{"openid"}, client, user)
	require.NoError(t, err)

	grant := RefreshTokenGrant{Rotate: true}
	resp, err := grant.Handle(ctx, map[string]string{"refresh_token": rt.Token}, client)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEqual(t, rt.Token, resp.RefreshToken)

	// The old token must now be revoked (revoke precedes create in
	// invocation order, §8 invariant 6).
	old, err := svc.FindRefreshToken(ctx, rt.Token)
	require.NoError(t, err)
	assert.True(t, old.IsRevoked)

	_, err = grant.Handle(ctx, map[string]string{"refresh_token": rt.Token}, client)
	require.Error(t, err)
	assert.Equal(t, KindInvalidGrant, err.(*Error).Kind)
}

func TestRefreshTokenGrantWithoutRotationKeepsToken(t *testing.T) {
	svc := newMemServices()
	client := Client{ID: "c1", AllowedGrants: []string{"refresh_token"}, Scopes: []string{"openid"}}
	svc.clients[client.ID] = client
	user := User{ID: "user-1"}

	now := time.Now()
	ctx := testContext(svc, now)
	rt, err := svc.CreateRefreshToken(ctx, []string{"openid"}, client, user)
	require.NoError(t, err)

	grant := RefreshTokenGrant{Rotate: false}
	resp, err := grant.Handle(ctx, map[string]string{"refresh_token": rt.Token}, client)
	require.NoError(t, err)
	assert.Equal(t, rt.Token, resp.RefreshToken)

	still, err := svc.FindRefreshToken(ctx, rt.Token)
	require.NoError(t, err)
	assert.False(t, still.IsRevoked)
}

func TestClientCredentialsGrantNeverIssuesRefreshToken(t *testing.T) {
	svc := newMemServices()
	client := Client{ID: "c1", AllowedGrants: []string{"client_credentials", "refresh_token"}, Scopes: []string{"openid"}}
	svc.clients[client.ID] = client
	ctx := testContext(svc, time.Now())

	grant := ClientCredentialsGrant{}
	resp, err := grant.Handle(ctx, map[string]string{}, client)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Empty(t, resp.RefreshToken)
}

func TestTokenResponseTypeRejectsQueryResponseMode(t *testing.T) {
	svc := newMemServices()
	client := Client{ID: "c1", Scopes: []string{"openid"}}
	svc.clients[client.ID] = client
	ctx := testContext(svc, time.Now())

	rt := TokenResponseType{}
	_, err := rt.Handle(ctx, AuthorizationParams{ResponseMode: "query"}, client, User{ID: "user-1"})
	require.Error(t, err)
	assert.Equal(t, KindInvalidRequest, err.(*Error).Kind)
}
