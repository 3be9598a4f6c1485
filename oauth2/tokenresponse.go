package oauth2

import (
	"math"
	"strings"
	"time"
)

// TokenResponse is the token-endpoint JSON shape (§6): scope and
// refresh_token are omitted from the wire when empty via the struct tags a
// transport-layer JSON encoder would apply; access_token, token_type and
// expires_in are always present (this core hands back the DTO; serialization
// itself is the transport's concern).
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// newTokenResponse assembles the external token-response DTO from an
// issued access token and an optional refresh token (C14): expires_in is
// ceil((expiresAt-now)/1s), scope is the space-joined granted scope list,
// and refresh_token is omitted entirely when refresh is nil — in
// particular the client_credentials grant never supplies one (§8
// invariant 7).
func newTokenResponse(ctx Context, access AccessToken, refresh *RefreshToken) TokenResponse {
	resp := TokenResponse{
		AccessToken: access.Token,
		TokenType:   access.TokenType,
		ExpiresIn:   expiresInSeconds(ctx.now(), access.ExpiresAt),
		Scope:       strings.Join(access.Scopes, " "),
	}
	if refresh != nil {
		resp.RefreshToken = refresh.Token
	}
	return resp
}

func expiresInSeconds(now, expiresAt time.Time) int64 {
	d := expiresAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return int64(math.Ceil(d.Seconds()))
}
