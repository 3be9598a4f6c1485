package oauth2

// AuthorizationCodeGrant implements §4.9.1: exchange a previously issued
// authorization code (plus PKCE verifier) for tokens.
type AuthorizationCodeGrant struct{}

func (AuthorizationCodeGrant) GrantType() string { return "authorization_code" }

func (AuthorizationCodeGrant) Handle(ctx Context, params map[string]string, client Client) (TokenResponse, error) {
	code, redirectURI, verifier := params["code"], params["redirect_uri"], params["code_verifier"]
	if code == "" || redirectURI == "" || verifier == "" {
		return TokenResponse{}, newError(KindInvalidRequest, "authorization_code grant requires code, redirect_uri, and code_verifier")
	}

	record, err := ctx.Services.AuthorizationCodes.FindAuthorizationCode(ctx, code)
	if err != nil {
		return TokenResponse{}, newError(KindInvalidGrant, "unknown authorization code")
	}

	// Revoke-on-lookup (§4.9.1 step 2, §8 invariant 5): the code is burned
	// before any further validation, so a failing request still consumes
	// it and a second concurrent attempt can succeed at most once.
	wasRevoked := record.IsRevoked
	if revokeErr := ctx.Services.AuthorizationCodes.RevokeAuthorizationCode(ctx, code); revokeErr != nil {
		return TokenResponse{}, newError(KindServerError, "revoking authorization code: %v", revokeErr)
	}

	if wasRevoked {
		return TokenResponse{}, newError(KindInvalidGrant, "authorization code already used")
	}
	if record.Client.ID != client.ID {
		return TokenResponse{}, newError(KindInvalidGrant, "authorization code was not issued to this client")
	}
	now := ctx.now()
	if record.Expired(now) {
		return TokenResponse{}, newError(KindInvalidGrant, "authorization code is not currently valid")
	}
	if record.RedirectURI != redirectURI {
		return TokenResponse{}, newError(KindInvalidGrant, "redirect_uri does not match the authorization request")
	}

	method, ok := LookupPKCEMethod(record.CodeChallengeMethod)
	if !ok {
		return TokenResponse{}, newError(KindInvalidRequest, "unknown code_challenge_method %q", record.CodeChallengeMethod)
	}
	if !method(record.CodeChallenge, verifier) {
		return TokenResponse{}, newError(KindInvalidGrant, "code_verifier does not match code_challenge")
	}

	access, err := ctx.Services.AccessTokens.CreateAccessToken(ctx, record.Scopes, client, &record.User)
	if err != nil {
		return TokenResponse{}, newError(KindServerError, "creating access token: %v", err)
	}

	var refresh *RefreshToken
	if client.AllowsGrant("refresh_token") && ctx.Services.RefreshTokens != nil {
		rt, err := ctx.Services.RefreshTokens.CreateRefreshToken(ctx, record.Scopes, client, record.User)
		if err != nil {
			return TokenResponse{}, newError(KindServerError, "creating refresh token: %v", err)
		}
		refresh = &rt
	}

	return newTokenResponse(ctx, access, refresh), nil
}
