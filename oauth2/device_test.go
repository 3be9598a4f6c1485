package oauth2

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceAuthorizationPollingLifecycle(t *testing.T) {
	svc := newMemServices()
	client := Client{ID: "device-client", AllowedGrants: []string{"urn:ietf:params:oauth:grant-type:device_code", "refresh_token"}, Scopes: []string{"openid"}}
	svc.clients[client.ID] = client

	t0 := time.Now()
	ctx := testContext(svc, t0)

	authz, err := RequestDeviceAuthorization(ctx, svc, client, "openid", "https://idp.example/device", time.Minute, 2*time.Second)
	require.NoError(t, err)
	assert.NotEmpty(t, authz.DeviceCode)
	assert.NotEmpty(t, authz.UserCode)

	grant := DeviceCodeGrant{}
	params := map[string]string{"device_code": authz.DeviceCode}

	// Poll before approval: authorization_pending.
	_, err = grant.Handle(ctx, params, client)
	require.Error(t, err)
	assert.Equal(t, KindAuthorizationPending, err.(*Error).Kind)

	// Poll again immediately: slow_down, since the interval hasn't elapsed.
	_, err = grant.Handle(ctx, params, client)
	require.Error(t, err)
	assert.Equal(t, KindSlowDown, err.(*Error).Kind)

	// Approve out of band, then poll after the interval: tokens issued.
	user := User{ID: "user-1"}
	require.NoError(t, ApproveDeviceAuthorization(ctx, svc, authz.UserCode, user))

	// The slow_down poll above escalated the backoff by 5s (2s -> 7s); the
	// first, pending poll did not. The next accepted poll must wait out 7s.
	ctxLater := testContext(svc, t0.Add(8*time.Second))
	resp, err := grant.Handle(ctxLater, params, client)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	// Polling again after completion returns the same cached tokens rather
	// than an error or a freshly minted pair.
	ctxAgain := testContext(svc, t0.Add(16*time.Second))
	resp2, err := grant.Handle(ctxAgain, params, client)
	require.NoError(t, err)
	assert.Equal(t, resp.AccessToken, resp2.AccessToken)
}

func TestDeviceAuthorizationDenied(t *testing.T) {
	svc := newMemServices()
	client := Client{ID: "device-client", AllowedGrants: []string{"urn:ietf:params:oauth:grant-type:device_code"}, Scopes: []string{"openid"}}
	svc.clients[client.ID] = client

	t0 := time.Now()
	ctx := testContext(svc, t0)
	authz, err := RequestDeviceAuthorization(ctx, svc, client, "", "https://idp.example/device", time.Minute, time.Second)
	require.NoError(t, err)

	require.NoError(t, DenyDeviceAuthorization(ctx, svc, authz.UserCode))

	ctxLater := testContext(svc, t0.Add(2*time.Second))
	grant := DeviceCodeGrant{}
	_, err = grant.Handle(ctxLater, map[string]string{"device_code": authz.DeviceCode}, client)
	require.Error(t, err)
	assert.Equal(t, KindAccessDenied, err.(*Error).Kind)
}

func TestDeviceAuthorizationExpired(t *testing.T) {
	svc := newMemServices()
	client := Client{ID: "device-client", AllowedGrants: []string{"urn:ietf:params:oauth:grant-type:device_code"}, Scopes: []string{"openid"}}
	svc.clients[client.ID] = client

	t0 := time.Now()
	ctx := testContext(svc, t0)
	authz, err := RequestDeviceAuthorization(ctx, svc, client, "", "https://idp.example/device", time.Second, time.Second)
	require.NoError(t, err)

	ctxLater := testContext(svc, t0.Add(time.Hour))
	grant := DeviceCodeGrant{}
	_, err = grant.Handle(ctxLater, map[string]string{"device_code": authz.DeviceCode}, client)
	require.Error(t, err)
	assert.Equal(t, KindExpiredToken, err.(*Error).Kind)
}
