package oauth2

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	icrypto "github.com/anttk/idcore/pkg/crypto"
)

// DeviceAuthorizationStatus tracks an in-flight device authorization
// request through the RFC 8628 polling lifecycle.
type DeviceAuthorizationStatus string

const (
	DeviceAuthorizationPending  DeviceAuthorizationStatus = "pending"
	DeviceAuthorizationApproved DeviceAuthorizationStatus = "approved"
	DeviceAuthorizationDenied   DeviceAuthorizationStatus = "denied"
	DeviceAuthorizationComplete DeviceAuthorizationStatus = "complete"
)

// DeviceAuthorization is the supplemented RFC 8628 device-authorization
// record: a device_code/user_code pair a client polls until a user has
// approved or denied it out of band, on a second device.
type DeviceAuthorization struct {
	DeviceCode string
	UserCode   string
	Client     Client
	Scopes     []string
	Status     DeviceAuthorizationStatus

	IssuedAt     time.Time
	ExpiresAt    time.Time
	LastPolledAt time.Time
	PollInterval time.Duration

	// User is set once a resource owner approves the user_code; it is
	// the identity the eventual access token is issued for.
	User *User

	// Access/Refresh cache the tokens issued the first time a poll finds
	// Status == approved, so a repeated poll against an already-claimed
	// authorization returns the same tokens instead of minting new ones.
	Access  *AccessToken
	Refresh *RefreshToken
}

// Expired reports whether now is past the authorization's expiry.
func (d DeviceAuthorization) Expired(now time.Time) bool {
	return now.After(d.ExpiresAt)
}

// DeviceAuthorizationService persists device-authorization records and
// the approve/deny decision a resource owner makes out of band.
type DeviceAuthorizationService interface {
	CreateDeviceAuthorization(ctx context.Context, params DeviceAuthorization) (DeviceAuthorization, error)
	FindDeviceAuthorizationByDeviceCode(ctx context.Context, deviceCode string) (DeviceAuthorization, error)
	FindDeviceAuthorizationByUserCode(ctx context.Context, userCode string) (DeviceAuthorization, error)
	UpdateDeviceAuthorization(ctx context.Context, deviceCode string, updater func(DeviceAuthorization) (DeviceAuthorization, error)) error
}

// DeviceAuthorizationResponse is the RFC 8628 §3.2 device authorization
// endpoint response DTO.
type DeviceAuthorizationResponse struct {
	DeviceCode              string `json:"device_code"`
	UserCode                string `json:"user_code"`
	VerificationURI         string `json:"verification_uri"`
	VerificationURIComplete string `json:"verification_uri_complete,omitempty"`
	ExpiresIn               int64  `json:"expires_in"`
	Interval                int64  `json:"interval,omitempty"`
}

// userCodeAlphabet is 20 upper-case consonants: no vowels and no visually
// ambiguous characters.
const userCodeAlphabet = "BCDFGHJKLMNPQRSTVWXZ"

func newUserCode() (string, error) {
	b, err := icrypto.RandBytes(8)
	if err != nil {
		return "", err
	}
	out := make([]byte, 0, 9)
	for i, c := range b {
		if i == 4 {
			out = append(out, '-')
		}
		out = append(out, userCodeAlphabet[int(c)%len(userCodeAlphabet)])
	}
	return string(out), nil
}

// RequestDeviceAuthorization implements RFC 8628 §3.1/§3.2: it mints a
// device_code/user_code pair for client and persists it pending approval.
func RequestDeviceAuthorization(ctx Context, svc DeviceAuthorizationService, client Client, scope, verificationURI string, codeLifetime, pollInterval time.Duration) (DeviceAuthorizationResponse, error) {
	requested, err := ctx.Scopes.CheckRequestedScope(scope)
	if err != nil {
		return DeviceAuthorizationResponse{}, err
	}
	scopes := ctx.Scopes.GetAllowedScopes(client, requested)

	userCode, err := newUserCode()
	if err != nil {
		return DeviceAuthorizationResponse{}, newError(KindServerError, "generating user_code: %v", err)
	}

	if codeLifetime == 0 {
		codeLifetime = 10 * time.Minute
	}
	if pollInterval == 0 {
		pollInterval = 5 * time.Second
	}
	now := ctx.now()

	record, err := svc.CreateDeviceAuthorization(ctx, DeviceAuthorization{
		DeviceCode:   uuid.NewString(),
		UserCode:     userCode,
		Client:       client,
		Scopes:       scopes,
		Status:       DeviceAuthorizationPending,
		IssuedAt:     now,
		ExpiresAt:    now.Add(codeLifetime),
		PollInterval: pollInterval,
	})
	if err != nil {
		return DeviceAuthorizationResponse{}, newError(KindServerError, "creating device authorization: %v", err)
	}

	return DeviceAuthorizationResponse{
		DeviceCode:              record.DeviceCode,
		UserCode:                record.UserCode,
		VerificationURI:         verificationURI,
		VerificationURIComplete: fmt.Sprintf("%s?user_code=%s", verificationURI, record.UserCode),
		ExpiresIn:               int64(codeLifetime.Seconds()),
		Interval:                int64(pollInterval.Seconds()),
	}, nil
}

// ApproveDeviceAuthorization records a resource owner's approval of
// userCode, the action the verification endpoint takes once the owner
// has authenticated and confirmed the code shown on their second device.
func ApproveDeviceAuthorization(ctx Context, svc DeviceAuthorizationService, userCode string, user User) error {
	record, err := svc.FindDeviceAuthorizationByUserCode(ctx, userCode)
	if err != nil {
		return newError(KindInvalidRequest, "unknown or expired user_code")
	}
	if record.Expired(ctx.now()) {
		return newError(KindExpiredToken, "user_code has expired")
	}
	return svc.UpdateDeviceAuthorization(ctx, record.DeviceCode, func(d DeviceAuthorization) (DeviceAuthorization, error) {
		d.Status = DeviceAuthorizationApproved
		d.User = &user
		return d, nil
	})
}

// DenyDeviceAuthorization records a resource owner's refusal of userCode.
func DenyDeviceAuthorization(ctx Context, svc DeviceAuthorizationService, userCode string) error {
	record, err := svc.FindDeviceAuthorizationByUserCode(ctx, userCode)
	if err != nil {
		return newError(KindInvalidRequest, "unknown or expired user_code")
	}
	return svc.UpdateDeviceAuthorization(ctx, record.DeviceCode, func(d DeviceAuthorization) (DeviceAuthorization, error) {
		d.Status = DeviceAuthorizationDenied
		return d, nil
	})
}

// DeviceCodeGrant implements the polling half of RFC 8628 §3.4/§3.5: the
// "urn:ietf:params:oauth:grant-type:device_code" grant type.
type DeviceCodeGrant struct{}

func (DeviceCodeGrant) GrantType() string { return "urn:ietf:params:oauth:grant-type:device_code" }

func (g DeviceCodeGrant) Handle(ctx Context, params map[string]string, client Client) (TokenResponse, error) {
	deviceCode := params["device_code"]
	if deviceCode == "" {
		return TokenResponse{}, newError(KindInvalidRequest, "device_code grant requires device_code")
	}
	if ctx.Services.DeviceAuthorizations == nil {
		return TokenResponse{}, newError(KindUnsupportedGrantType, "device authorization is not configured")
	}

	record, err := ctx.Services.DeviceAuthorizations.FindDeviceAuthorizationByDeviceCode(ctx, deviceCode)
	if err != nil {
		return TokenResponse{}, newError(KindInvalidGrant, "unknown device_code")
	}
	if record.Client.ID != client.ID {
		return TokenResponse{}, newError(KindInvalidGrant, "device_code was not issued to this client")
	}

	now := ctx.now()
	if record.Expired(now) {
		return TokenResponse{}, newError(KindExpiredToken, "device_code has expired")
	}

	// Rate limiting (§3.5): a poll faster than the advertised interval
	// earns slow_down and a further backoff, mirroring the teacher's own
	// escalating poll-interval handling.
	tooFast := now.Before(record.LastPolledAt.Add(record.PollInterval))
	nextInterval := record.PollInterval
	if tooFast {
		nextInterval += 5 * time.Second
	}
	updateErr := ctx.Services.DeviceAuthorizations.UpdateDeviceAuthorization(ctx, deviceCode, func(d DeviceAuthorization) (DeviceAuthorization, error) {
		d.LastPolledAt = now
		d.PollInterval = nextInterval
		return d, nil
	})
	if updateErr != nil {
		return TokenResponse{}, newError(KindServerError, "updating device authorization: %v", updateErr)
	}
	if tooFast {
		return TokenResponse{}, newError(KindSlowDown, "polled before the advertised interval elapsed")
	}

	switch record.Status {
	case DeviceAuthorizationPending:
		return TokenResponse{}, newError(KindAuthorizationPending, "the end user has not yet completed authorization")
	case DeviceAuthorizationDenied:
		return TokenResponse{}, newError(KindAccessDenied, "the end user denied the authorization request")
	case DeviceAuthorizationComplete:
		if record.Access == nil {
			return TokenResponse{}, newError(KindServerError, "device authorization marked complete without an access token")
		}
		return newTokenResponse(ctx, *record.Access, record.Refresh), nil
	case DeviceAuthorizationApproved:
		return g.issue(ctx, record)
	default:
		return TokenResponse{}, newError(KindServerError, "unknown device authorization status %q", record.Status)
	}
}

func (g DeviceCodeGrant) issue(ctx Context, record DeviceAuthorization) (TokenResponse, error) {
	if record.User == nil {
		return TokenResponse{}, newError(KindServerError, "device authorization approved without a user")
	}

	access, err := ctx.Services.AccessTokens.CreateAccessToken(ctx, record.Scopes, record.Client, record.User)
	if err != nil {
		return TokenResponse{}, newError(KindServerError, "creating access token: %v", err)
	}

	var refresh *RefreshToken
	if record.Client.AllowsGrant("refresh_token") && ctx.Services.RefreshTokens != nil {
		rt, err := ctx.Services.RefreshTokens.CreateRefreshToken(ctx, record.Scopes, record.Client, *record.User)
		if err != nil {
			return TokenResponse{}, newError(KindServerError, "creating refresh token: %v", err)
		}
		refresh = &rt
	}

	updateErr := ctx.Services.DeviceAuthorizations.UpdateDeviceAuthorization(ctx, record.DeviceCode, func(d DeviceAuthorization) (DeviceAuthorization, error) {
		d.Status = DeviceAuthorizationComplete
		d.Access = &access
		d.Refresh = refresh
		return d, nil
	})
	if updateErr != nil {
		return TokenResponse{}, newError(KindServerError, "completing device authorization: %v", updateErr)
	}

	return newTokenResponse(ctx, access, refresh), nil
}
