package portal

import (
	"time"

	"github.com/godbus/dbus/v5"
)

// Portal D-Bus constants
const (
	portalService    = "org.freedesktop.portal.Desktop"
	portalPath       = dbus.ObjectPath("/org/freedesktop/portal/desktop")
	screenshotIface  = "org.freedesktop.portal.Screenshot"
	screenshotMethod = screenshotIface + ".Screenshot"
	requestIface     = "org.freedesktop.portal.Request"
	responseMember   = "Response"
	responseSignal   = requestIface + "." + responseMember
	requestPrefix    = "/org/freedesktop/portal/desktop/request/"
)

// Response codes of org.freedesktop.portal.Request.Response
const (
	ResponseSuccess   uint32 = 0
	ResponseCancelled uint32 = 1
	ResponseOther     uint32 = 2
)

// DefaultTimeout bounds the wait for the portal's Response signal. The
// user may be shown a confirmation dialog, so it is generous.
const DefaultTimeout = 60 * time.Second
