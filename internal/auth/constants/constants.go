package constants

import "github.com/brizzai/volunteer-auth/internal/auth/models"

// Notification kinds, values are the wire names the reducer switches on
const (
	SignedIn           models.Kind = "SIGNED_IN"
	SignedOut          models.Kind = "SIGNED_OUT"
	SignInInit         models.Kind = "SIGNIN_INIT"
	SignInFailed       models.Kind = "SIGNIN_FAILED"
	SignInNewUser      models.Kind = "SIGNIN_NEW_USER"
	GetUserAccountOK   models.Kind = "GET_USER_ACCOUNT_SUCCESSFUL"
	RegisterInit       models.Kind = "REGISTER_INIT"
	RegisterSuccessful models.Kind = "REGISTER_SUCCESSFUL"
	RegisterFailed     models.Kind = "REGISTER_FAILED"
)

const (
	// UsersCollection holds one profile document per user id
	UsersCollection = "users"

	// CredentialsCollection holds password hashes for the local identity emulator
	CredentialsCollection = "credentials"

	// CallbackPath is where popup flows redirect back to
	CallbackPath = "/callback"
)

// DefaultScopes for OpenID Connect based providers
var DefaultScopes = []string{"openid", "profile", "email"}
