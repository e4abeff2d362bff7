package providers

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownProvider is returned for a selector outside the fixed set
var ErrUnknownProvider = errors.New("unknown auth provider")

// Provider selects how a user signs in
type Provider int

const (
	Password Provider = iota + 1
	Google
	Facebook
	Twitter
)

var providerNames = map[Provider]string{
	Password: "password",
	Google:   "google",
	Facebook: "facebook",
	Twitter:  "twitter",
}

// All returns every known provider in a stable order
func All() []Provider {
	return []Provider{Password, Google, Facebook, Twitter}
}

func (p Provider) String() string {
	if name, ok := providerNames[p]; ok {
		return name
	}
	return fmt.Sprintf("provider(%d)", int(p))
}

// Valid reports whether p is one of the known providers
func (p Provider) Valid() bool {
	_, ok := providerNames[p]
	return ok
}

// Federated reports whether p signs in through a popup flow
func (p Provider) Federated() bool {
	return p.Valid() && p != Password
}

// ParseProvider maps a provider name to its selector. "email" is accepted
// as an alias for password.
func ParseProvider(name string) (Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "email" {
		return Password, nil
	}
	for p, n := range providerNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
}

// Method is a sign-in request: a provider plus the credentials the password
// provider needs. Build one with WithPassword or WithPopup.
type Method struct {
	Provider Provider
	Email    string
	Password string
}

// WithPassword signs in with an email and password
func WithPassword(email, password string) Method {
	return Method{Provider: Password, Email: email, Password: password}
}

// WithPopup signs in through a federated provider's popup flow
func WithPopup(p Provider) Method {
	return Method{Provider: p}
}

// String never includes the password
func (m Method) String() string {
	if m.Provider == Password {
		return fmt.Sprintf("password(%s)", m.Email)
	}
	return m.Provider.String()
}
