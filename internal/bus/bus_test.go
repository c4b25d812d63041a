package bus

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchRule(t *testing.T) {
	assert.Equal(t,
		"type='signal',interface='org.freedesktop.portal.Request',member='Response'",
		MatchRule("org.freedesktop.portal.Request", "Response"),
	)
}

func TestSubscription_CloseOnce(t *testing.T) {
	calls := 0
	sub := NewSubscription(make(chan *dbus.Signal), func() error {
		calls++
		return errors.New("remove match failed")
	})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.EqualError(t, sub.Close(), "remove match failed")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, calls)
	select {
	case <-sub.Done():
	default:
		t.Fatal("Done should be closed after Close")
	}
}

func TestSubscription_NilCloser(t *testing.T) {
	sub := NewSubscription(nil, nil)
	assert.NoError(t, sub.Close())
	assert.NoError(t, sub.Close())
}

func TestPump_FiltersByName(t *testing.T) {
	raw := make(chan *dbus.Signal, 4)
	out := make(chan *dbus.Signal, 4)
	done := make(chan struct{})

	exited := make(chan struct{})
	go func() {
		pump(raw, out, done, "org.freedesktop.portal.Request.Response")
		close(exited)
	}()

	raw <- &dbus.Signal{Name: "org.freedesktop.DBus.NameAcquired"}
	raw <- &dbus.Signal{Name: "org.freedesktop.portal.Request.Response", Path: "/a"}

	select {
	case sig := <-out:
		assert.Equal(t, dbus.ObjectPath("/a"), sig.Path)
	case <-time.After(time.Second):
		t.Fatal("matching signal was not forwarded")
	}

	close(done)
	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("pump did not stop after done was closed")
	}
	require.Empty(t, out)
}

func TestSignalError(t *testing.T) {
	err := &SignalError{Reason: "body too short"}
	assert.Equal(t, "dbus: signal error: body too short", err.Error())
}
