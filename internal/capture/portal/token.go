package portal

import (
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"
)

// NewToken returns a fresh handle_token: a random UUID with the dashes
// removed, i.e. 32 lowercase hex characters.
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// SanitizeSender turns a unique bus name such as ":1.42" into the path
// element the portal uses for it ("1_42").
func SanitizeSender(uniqueName string) string {
	return strings.ReplaceAll(strings.TrimPrefix(uniqueName, ":"), ".", "_")
}

// RequestPath is the object path the portal will create for a request
// made by uniqueName with the given handle_token.
func RequestPath(uniqueName, token string) dbus.ObjectPath {
	return dbus.ObjectPath(requestPrefix + SanitizeSender(uniqueName) + "/" + token)
}
