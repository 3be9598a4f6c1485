package oauth2

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memServices is an in-memory Services implementation shared by this
// package's tests: enough persistence to exercise the invocation-order
// invariants §5/§8 require without a real storage backend.
type memServices struct {
	mu sync.Mutex

	clients map[string]Client
	users   map[string]User

	codes    map[string]AuthorizationCode
	access   map[string]AccessToken
	refresh  map[string]RefreshToken
	devices  map[string]DeviceAuthorization
	byUserCode map[string]string // user_code -> device_code
}

func newMemServices() *memServices {
	return &memServices{
		clients:    make(map[string]Client),
		users:      make(map[string]User),
		codes:      make(map[string]AuthorizationCode),
		access:     make(map[string]AccessToken),
		refresh:    make(map[string]RefreshToken),
		devices:    make(map[string]DeviceAuthorization),
		byUserCode: make(map[string]string),
	}
}

func (m *memServices) FindClient(ctx context.Context, id string) (Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[id]
	if !ok {
		return Client{}, ErrNotFound
	}
	return c, nil
}

func (m *memServices) FindByResourceOwnerCredentials(ctx context.Context, username, password string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *memServices) FindByID(ctx context.Context, id string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *memServices) CreateAuthorizationCode(ctx context.Context, params AuthorizationCode) (AuthorizationCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[params.Code] = params
	return params, nil
}

func (m *memServices) FindAuthorizationCode(ctx context.Context, code string) (AuthorizationCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[code]
	if !ok {
		return AuthorizationCode{}, ErrNotFound
	}
	return c, nil
}

func (m *memServices) RevokeAuthorizationCode(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[code]
	if !ok {
		return ErrNotFound
	}
	c.IsRevoked = true
	m.codes[code] = c
	return nil
}

func (m *memServices) CreateAccessToken(ctx context.Context, scopes []string, client Client, user *User) (AccessToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	at := AccessToken{
		Token:     uuid.NewString(),
		TokenType: "Bearer",
		Scopes:    scopes,
		ExpiresAt: time.Now().Add(time.Hour),
		Client:    client,
		User:      user,
	}
	m.access[at.Token] = at
	return at, nil
}

func (m *memServices) FindAccessToken(ctx context.Context, token string) (AccessToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	at, ok := m.access[token]
	if !ok {
		return AccessToken{}, ErrNotFound
	}
	return at, nil
}

func (m *memServices) RevokeAccessToken(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.access, token)
	return nil
}

func (m *memServices) CreateRefreshToken(ctx context.Context, scopes []string, client Client, user User) (RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Stamp validity from the request's clock seam so a token created and
	// redeemed at the same test "now" is valid.
	now := time.Now()
	if c, ok := ctx.(Context); ok {
		now = c.now()
	}
	rt := RefreshToken{
		Token:      uuid.NewString(),
		Scopes:     scopes,
		ExpiresAt:  now.Add(30 * 24 * time.Hour),
		ValidAfter: now,
		Client:     client,
		User:       user,
	}
	m.refresh[rt.Token] = rt
	return rt, nil
}

func (m *memServices) FindRefreshToken(ctx context.Context, token string) (RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt, ok := m.refresh[token]
	if !ok {
		return RefreshToken{}, ErrNotFound
	}
	return rt, nil
}

func (m *memServices) RevokeRefreshToken(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt, ok := m.refresh[token]
	if !ok {
		return ErrNotFound
	}
	rt.IsRevoked = true
	m.refresh[token] = rt
	return nil
}

func (m *memServices) CreateDeviceAuthorization(ctx context.Context, params DeviceAuthorization) (DeviceAuthorization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices[params.DeviceCode] = params
	m.byUserCode[params.UserCode] = params.DeviceCode
	return params, nil
}

func (m *memServices) FindDeviceAuthorizationByDeviceCode(ctx context.Context, deviceCode string) (DeviceAuthorization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[deviceCode]
	if !ok {
		return DeviceAuthorization{}, ErrNotFound
	}
	return d, nil
}

func (m *memServices) FindDeviceAuthorizationByUserCode(ctx context.Context, userCode string) (DeviceAuthorization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	deviceCode, ok := m.byUserCode[userCode]
	if !ok {
		return DeviceAuthorization{}, ErrNotFound
	}
	return m.devices[deviceCode], nil
}

func (m *memServices) UpdateDeviceAuthorization(ctx context.Context, deviceCode string, updater func(DeviceAuthorization) (DeviceAuthorization, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[deviceCode]
	if !ok {
		return ErrNotFound
	}
	updated, err := updater(d)
	if err != nil {
		return err
	}
	m.devices[deviceCode] = updated
	return nil
}

func (m *memServices) services() Services {
	return Services{
		Clients:              m,
		Users:                m,
		AuthorizationCodes:   m,
		AccessTokens:         m,
		RefreshTokens:        m,
		DeviceAuthorizations: m,
	}
}

func testContext(svc *memServices, now time.Time) Context {
	return Context{
		Context:  context.Background(),
		Services: svc.services(),
		Scopes:   NewScopeHandler([]string{"openid", "profile", "email"}),
		Now:      func() time.Time { return now },
	}
}
