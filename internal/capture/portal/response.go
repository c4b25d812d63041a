package portal

import (
	"fmt"

	"github.com/bryanchriswhite/SnapShooter/internal/bus"
	"github.com/bryanchriswhite/SnapShooter/internal/capture"
	"github.com/godbus/dbus/v5"
)

// response is the decoded body of a Request.Response signal.
type response struct {
	status  uint32
	results map[string]dbus.Variant
	err     error
}

func parseResponse(sig *dbus.Signal) response {
	if len(sig.Body) < 2 {
		return response{err: protocolError("body too short: %d values", len(sig.Body))}
	}
	status, ok := sig.Body[0].(uint32)
	if !ok {
		return response{err: protocolError("response code is %T, want uint32", sig.Body[0])}
	}
	results, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return response{err: protocolError("results are %T, want map[string]dbus.Variant", sig.Body[1])}
	}
	return response{status: status, results: results}
}

// uri extracts the screenshot location from a successful response.
func (r response) uri() (string, error) {
	v, ok := r.results["uri"]
	if !ok {
		return "", protocolError("results have no uri")
	}
	uri, ok := v.Value().(string)
	if !ok {
		return "", protocolError("uri is %T, want string", v.Value())
	}
	if uri == "" {
		return "", protocolError("uri is empty")
	}
	return uri, nil
}

func protocolError(format string, args ...interface{}) error {
	return capture.Fail(capture.KindPortalProtocolError, &bus.SignalError{Reason: fmt.Sprintf(format, args...)})
}
