package bus

import (
	"sync"

	"github.com/godbus/dbus/v5"
)

// Subscription is a handle on an installed signal listener.
type Subscription struct {
	signals <-chan *dbus.Signal
	done    chan struct{}
	closer  func() error

	once sync.Once
	err  error
}

// NewSubscription builds a handle around a signal channel. closer runs
// exactly once, on the first Close.
func NewSubscription(signals <-chan *dbus.Signal, closer func() error) *Subscription {
	return &Subscription{
		signals: signals,
		done:    make(chan struct{}),
		closer:  closer,
	}
}

// Signals yields the subscribed signals. It is never closed; select on
// Done as well.
func (s *Subscription) Signals() <-chan *dbus.Signal {
	return s.signals
}

// Done is closed once the subscription has been closed.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close removes the listener. It is safe to call more than once and from
// several goroutines; every call returns the first call's error.
func (s *Subscription) Close() error {
	s.once.Do(func() {
		close(s.done)
		if s.closer != nil {
			s.err = s.closer()
		}
	})
	return s.err
}
