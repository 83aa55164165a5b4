package stdio

import (
	"os/user"
)

// UserProvider provides a string user ID to associate with the stdio peer.
// Handlers read it from the session under UserKey.
type UserProvider interface {
	CurrentUserID() (string, error)
}

// UserProviderFunc adapts a function to UserProvider.
type UserProviderFunc func() (string, error)

func (f UserProviderFunc) CurrentUserID() (string, error) { return f() }

// OSUserProvider resolves the user ID using the operating system's current user.
// The returned ID is user.Username when available; falling back to user.Uid.
type OSUserProvider struct{}

func (OSUserProvider) CurrentUserID() (string, error) {
	u, err := user.Current()
	if err != nil {
		return "", err
	}
	if u.Username != "" {
		return u.Username, nil
	}
	return u.Uid, nil
}
