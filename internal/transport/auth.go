package transport

import (
	"net/http"
	"os"

	"github.com/agentstation/lookupsync/pkg/constants"
	"github.com/agentstation/lookupsync/pkg/errors"
)

// Credential identifies the caller to a remote list store. The zero value
// means the invoking identity: no Authorization header is sent and an
// intermediary (proxy, integrated auth) is expected to authenticate.
type Credential struct {
	User     string
	Password string
	Token    string
}

// CredentialFromEnv fills Token from LOOKUPSYNC_TOKEN when no user is set.
func CredentialFromEnv(user, password string) Credential {
	c := Credential{User: user, Password: password}
	if user == "" {
		c.Token = os.Getenv(constants.EnvToken)
	}
	return c
}

// Method names the authentication scheme the credential selects.
func (c Credential) Method() string {
	switch {
	case c.User != "":
		return "basic"
	case c.Token != "":
		return "bearer"
	}
	return "ambient"
}

// Authenticator applies authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request)
}

// NewAuthenticator selects an authenticator: explicit user/password use
// basic auth, otherwise a token uses bearer auth, otherwise nothing is applied.
func NewAuthenticator(c Credential) (Authenticator, error) {
	switch c.Method() {
	case "basic":
		if c.Password == "" {
			return nil, &errors.AuthenticationError{Method: "basic", Message: "password is required with user " + c.User}
		}
		return &BasicAuth{User: c.User, Password: c.Password}, nil
	case "bearer":
		return &BearerAuth{Token: c.Token}, nil
	}
	return &NoAuth{}, nil
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request) {}

// BasicAuth implements HTTP basic authentication.
type BasicAuth struct {
	User     string
	Password string
}

// Apply implements the Authenticator interface for BasicAuth.
func (a *BasicAuth) Apply(req *http.Request) {
	req.SetBasicAuth(a.User, a.Password)
}

// BearerAuth implements Bearer token authentication.
type BearerAuth struct {
	Token string
}

// Apply implements the Authenticator interface for BearerAuth.
func (a *BearerAuth) Apply(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+a.Token)
}
