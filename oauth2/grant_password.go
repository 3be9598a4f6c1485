package oauth2

// PasswordGrant implements §4.9.3: the resource-owner-password-credentials
// grant. It trusts the transport layer to have decided this grant should
// still be offered (RFC 6749 §4.3 discourages it for third-party clients).
type PasswordGrant struct{}

func (PasswordGrant) GrantType() string { return "password" }

func (PasswordGrant) Handle(ctx Context, params map[string]string, client Client) (TokenResponse, error) {
	username, password := params["username"], params["password"]
	if username == "" || password == "" {
		return TokenResponse{}, newError(KindInvalidRequest, "password grant requires username and password")
	}

	requested, err := ctx.Scopes.CheckRequestedScope(params["scope"])
	if err != nil {
		return TokenResponse{}, err
	}
	scopes := ctx.Scopes.GetAllowedScopes(client, requested)

	user, err := ctx.Services.Users.FindByResourceOwnerCredentials(ctx, username, password)
	if err != nil {
		return TokenResponse{}, newError(KindInvalidGrant, "invalid resource owner credentials")
	}

	access, err := ctx.Services.AccessTokens.CreateAccessToken(ctx, scopes, client, &user)
	if err != nil {
		return TokenResponse{}, newError(KindServerError, "creating access token: %v", err)
	}

	var refresh *RefreshToken
	if client.AllowsGrant("refresh_token") && ctx.Services.RefreshTokens != nil {
		rt, err := ctx.Services.RefreshTokens.CreateRefreshToken(ctx, scopes, client, user)
		if err != nil {
			return TokenResponse{}, newError(KindServerError, "creating refresh token: %v", err)
		}
		refresh = &rt
	}

	return newTokenResponse(ctx, access, refresh), nil
}
