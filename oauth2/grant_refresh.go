package oauth2

// RefreshTokenGrant implements §4.9.2, including the configurable
// rotation policy (§8 invariant 6: the revoke of the old token must
// precede the create of the new one in observable invocation order).
type RefreshTokenGrant struct {
	Rotate bool
}

func (RefreshTokenGrant) GrantType() string { return "refresh_token" }

func (g RefreshTokenGrant) Handle(ctx Context, params map[string]string, client Client) (TokenResponse, error) {
	token := params["refresh_token"]
	if token == "" {
		return TokenResponse{}, newError(KindInvalidRequest, "refresh_token grant requires refresh_token")
	}
	if ctx.Services.RefreshTokens == nil {
		return TokenResponse{}, newError(KindUnsupportedGrantType, "refresh tokens are not configured")
	}

	requested, err := ctx.Scopes.CheckRequestedScope(params["scope"])
	if err != nil {
		return TokenResponse{}, err
	}

	record, err := ctx.Services.RefreshTokens.FindRefreshToken(ctx, token)
	if err != nil {
		return TokenResponse{}, newError(KindInvalidGrant, "unknown refresh token")
	}
	if record.Client.ID != client.ID {
		return TokenResponse{}, newError(KindInvalidGrant, "refresh token was not issued to this client")
	}
	now := ctx.now()
	if record.Expired(now) || record.IsRevoked {
		return TokenResponse{}, newError(KindInvalidGrant, "refresh token is not currently valid")
	}

	scopes := record.Scopes
	if len(requested) > 0 {
		for _, s := range requested {
			if !contains(record.Scopes, s) {
				return TokenResponse{}, newError(KindInvalidGrant, "requested scope %q exceeds the refresh token's granted scopes", s)
			}
		}
		scopes = requested
	}

	access, err := ctx.Services.AccessTokens.CreateAccessToken(ctx, scopes, client, &record.User)
	if err != nil {
		return TokenResponse{}, newError(KindServerError, "creating access token: %v", err)
	}

	if !g.Rotate {
		return newTokenResponse(ctx, access, &record), nil
	}

	if err := ctx.Services.RefreshTokens.RevokeRefreshToken(ctx, token); err != nil {
		return TokenResponse{}, newError(KindServerError, "revoking refresh token: %v", err)
	}
	newRefresh, err := ctx.Services.RefreshTokens.CreateRefreshToken(ctx, record.Scopes, client, record.User)
	if err != nil {
		return TokenResponse{}, newError(KindServerError, "creating refresh token: %v", err)
	}

	return newTokenResponse(ctx, access, &newRefresh), nil
}
