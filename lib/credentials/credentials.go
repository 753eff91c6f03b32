// Package credentials models the opaque session token the host site's
// credential-gated endpoints require. The library never performs a login
// flow; tokens come from the caller's browser session.
package credentials

import (
	"net/http"

	"github.com/go-resty/resty/v2"

	"jianshukit/lib/apierr"
)

const cookieName = "remember_user_token"

type JianshuCredential struct {
	token string
}

func New(token string) (JianshuCredential, error) {
	if token == "" {
		return JianshuCredential{}, apierr.Inputf("session token must not be empty")
	}
	return JianshuCredential{token: token}, nil
}

func (c JianshuCredential) Empty() bool {
	return c.token == ""
}

// Apply attaches the session cookie to a single request. Only the wallet
// endpoints call this; the rest of the library stays anonymous.
func (c JianshuCredential) Apply(req *resty.Request) error {
	if c.Empty() {
		return &apierr.CredentialError{Msg: "this endpoint requires a credential"}
	}
	req.SetCookie(&http.Cookie{Name: cookieName, Value: c.token})
	return nil
}
