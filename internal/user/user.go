// Package user resolves the local account used as the default owner when
// none is configured
package user

import (
	"os"
	"os/user"
	"strings"
)

// lookup is replaced in tests
var lookup = user.Current

// CurrentUsername returns the OS account name. It tries, in order:
// 1. user.Current()
// 2. the USER environment variable
// It returns "" when neither yields a name, so callers can insist on an
// explicit owner.
func CurrentUsername() string {
	if u, err := lookup(); err == nil && strings.TrimSpace(u.Username) != "" {
		return ownerID(u.Username)
	}
	return ownerID(os.Getenv("USER"))
}

// ownerID strips a Windows DOMAIN\ prefix
func ownerID(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndex(name, `\`); i >= 0 {
		name = name[i+1:]
	}
	return name
}
