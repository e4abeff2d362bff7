package models

// User is the session user handed back by the identity platform on a
// successful sign-in. It is only ever read by this module.
type User struct {
	UID      string                 `yaml:"uid"`
	Email    string                 `yaml:"email,omitempty"`
	Name     string                 `yaml:"name,omitempty"`
	Picture  string                 `yaml:"picture,omitempty"`
	Provider string                 `yaml:"provider,omitempty"`
	IDToken  string                 `yaml:"id_token,omitempty"`
	Metadata map[string]interface{} `yaml:"metadata,omitempty"`
}

// Profile is the user document kept in the users collection
type Profile map[string]interface{}

// UID returns the profile's "uid" field, or "" when absent or not a string
func (p Profile) UID() string {
	uid, _ := p["uid"].(string)
	return uid
}

// Kind names a state transition reported by the auth workflow
type Kind string

// Notification is a single state transition. Payload is nil for kinds that
// carry none, a *User for SignedIn and a Profile for account kinds.
type Notification struct {
	Kind    Kind
	Payload interface{}
}

// Sink receives notifications synchronously
type Sink func(Notification)
