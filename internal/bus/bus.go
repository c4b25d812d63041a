// Package bus wraps a godbus session-bus connection with the pieces the
// portal client needs: the connection's unique name, context-bound method
// calls, and signal subscriptions that are returned as handles.
package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/bryanchriswhite/SnapShooter/internal/logger"
	"github.com/godbus/dbus/v5"
)

// signalBuffer is the capacity of each subscription's raw channel.
const signalBuffer = 16

// Session is a private connection to the per-user session bus.
type Session struct {
	conn *dbus.Conn

	// mu serialises match-rule and channel registration so a Close can
	// never interleave with a concurrent Subscribe on the same connection.
	mu sync.Mutex
}

// ConnectSession opens a new connection to the session bus.
func ConnectSession() (*Session, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Session{conn: conn}, nil
}

// UniqueName returns the colon-prefixed name the bus assigned to this
// connection, or "" if the Hello exchange did not yield one.
func (s *Session) UniqueName() string {
	names := s.conn.Names()
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

// Call invokes method on the object at path owned by dest and returns the
// reply body.
func (s *Session) Call(ctx context.Context, dest string, path dbus.ObjectPath, method string, args ...interface{}) ([]interface{}, error) {
	call := s.conn.Object(dest, path).CallWithContext(ctx, method, 0, args...)
	if call.Err != nil {
		return nil, call.Err
	}
	return call.Body, nil
}

// Subscribe installs a match rule for iface.member signals and returns a
// handle that yields them. The rule is active on the bus when Subscribe
// returns.
func (s *Session) Subscribe(iface, member string) (*Subscription, error) {
	opts := []dbus.MatchOption{
		dbus.WithMatchInterface(iface),
		dbus.WithMatchMember(member),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.conn.AddMatchSignal(opts...); err != nil {
		return nil, fmt.Errorf("failed to add match rule %s: %w", MatchRule(iface, member), err)
	}

	raw := make(chan *dbus.Signal, signalBuffer)
	s.conn.Signal(raw)

	out := make(chan *dbus.Signal, signalBuffer)
	sub := NewSubscription(out, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.conn.RemoveSignal(raw)
		return s.conn.RemoveMatchSignal(opts...)
	})

	go pump(raw, out, sub.Done(), iface+"."+member)

	logger.WithComponent("bus").Debug().
		Str("rule", MatchRule(iface, member)).
		Msg("Subscribed to signal")
	return sub, nil
}

// pump forwards signals named name from raw to out until done is closed.
// The connection delivers every signal to every registered channel, so the
// interface/member filter is applied here as well as on the bus.
func pump(raw <-chan *dbus.Signal, out chan<- *dbus.Signal, done <-chan struct{}, name string) {
	for {
		select {
		case <-done:
			return
		case sig, ok := <-raw:
			if !ok {
				return
			}
			if sig.Name != name {
				continue
			}
			select {
			case out <- sig:
			case <-done:
				return
			}
		}
	}
}

// Close closes the underlying connection.
func (s *Session) Close() error {
	return s.conn.Close()
}

// MatchRule renders the match rule used for iface.member signals.
func MatchRule(iface, member string) string {
	return fmt.Sprintf("type='signal',interface='%s',member='%s'", iface, member)
}
