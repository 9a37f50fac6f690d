package aidb

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// AuthAPI wraps the /auth endpoints.
type AuthAPI struct{ c *Client }

// Login exchanges credentials for a bearer token.
func (api *AuthAPI) Login(ctx context.Context, email, password string) (LoginResult, error) {
	draft := LoginDraft{Email: strings.TrimSpace(email), Password: password}
	if err := draft.Validate(); err != nil {
		return LoginResult{}, err
	}
	var out LoginResult
	err := api.c.do(ctx, request{
		op:     "login",
		method: http.MethodPost,
		route:  "/auth/login",
		path:   "/auth/login",
		body:   draft,
	}, &out)
	if err != nil {
		return LoginResult{}, err
	}
	if out.AccessToken == "" {
		return LoginResult{}, &DecodeError{Op: "login", Err: errMissingToken}
	}
	if out.UserEmail == "" {
		out.UserEmail = draft.Email
	}
	return out, nil
}

// Verify checks token against the API. An empty token falls back to the
// client's TokenSource.
func (api *AuthAPI) Verify(ctx context.Context, token string) (VerifyResult, error) {
	var out VerifyResult
	err := api.c.do(ctx, request{
		op:     "verify token",
		method: http.MethodGet,
		route:  "/auth/verify",
		path:   "/auth/verify",
		bearer: token,
	}, &out)
	return out, err
}

// ChangePassword validates the form locally and submits it.
func (api *AuthAPI) ChangePassword(ctx context.Context, change PasswordChange) (MessageResult, error) {
	if err := change.Validate(); err != nil {
		return MessageResult{}, err
	}
	var out MessageResult
	err := api.c.do(ctx, request{
		op:     "change password",
		method: http.MethodPost,
		route:  "/auth/change-password",
		path:   "/auth/change-password",
		body:   change,
	}, &out)
	return out, err
}

var errMissingToken = errors.New("response has no access_token")
