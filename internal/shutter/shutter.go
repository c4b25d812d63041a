// Package shutter takes screenshots on behalf of interactive front ends. It
// keeps the most recent shot, refuses overlapping captures and tells
// listeners what is going on.
package shutter

import (
	"errors"
	"image"
	"sync"
	"time"

	"github.com/bryanchriswhite/SnapShooter/internal/capture"
	"github.com/bryanchriswhite/SnapShooter/internal/logger"
	"github.com/bryanchriswhite/SnapShooter/internal/session"
)

// ErrBusy is returned by Shoot while another capture is in flight.
var ErrBusy = errors.New("shutter: capture already in progress")

// Shot is a completed capture.
type Shot struct {
	ID      uint64
	Image   *image.NRGBA
	TakenAt time.Time
	Took    time.Duration
	Session string
	Source  string
}

// Router is implemented by capturers that pick a backend per session, such
// as *capture.Router. Shots taken through one record the backend used.
type Router interface {
	Route() (session.Kind, capture.Capturer)
	CaptureRouted() (*image.NRGBA, session.Kind, capture.Capturer, error)
}

// EventType names a shutter state change.
type EventType string

const (
	EventStarted   EventType = "started"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
)

// Event describes a shutter state change for listeners.
type Event struct {
	Type   EventType `json:"type"`
	ShotID uint64    `json:"shot_id,omitempty"`
	Width  int       `json:"width,omitempty"`
	Height int       `json:"height,omitempty"`
	Kind   string    `json:"kind,omitempty"`
	Error  string    `json:"error,omitempty"`
	Time   time.Time `json:"time"`
}

// Shutter serialises captures through a Capturer.
type Shutter struct {
	capturer capture.Capturer
	now      func() time.Time

	mu     sync.Mutex
	busy   bool
	latest *Shot
	nextID uint64

	listenersMu sync.Mutex
	listeners   []chan Event
}

// New creates a shutter around c.
func New(c capture.Capturer) *Shutter {
	return &Shutter{capturer: c, now: time.Now}
}

// Busy reports whether a capture is in flight.
func (s *Shutter) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Shoot captures the screen and records the result as the latest shot.
// It blocks for the duration of the capture; a concurrent call returns
// ErrBusy immediately.
func (s *Shutter) Shoot() (*Shot, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.busy = true
	s.nextID++
	id := s.nextID
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	log := logger.WithComponent("shutter")
	start := s.now()
	s.notify(Event{Type: EventStarted, ShotID: id, Time: start})

	img, kind, source, err := s.capture()
	if err != nil {
		log.Warn().Err(err).Uint64("shot_id", id).Msg("Capture failed")
		s.notify(Event{
			Type:   EventFailed,
			ShotID: id,
			Kind:   capture.KindOf(err).String(),
			Error:  err.Error(),
			Time:   s.now(),
		})
		return nil, err
	}

	shot := &Shot{
		ID:      id,
		Image:   img,
		TakenAt: start,
		Took:    s.now().Sub(start),
		Session: kind,
		Source:  source,
	}

	s.mu.Lock()
	s.latest = shot
	s.mu.Unlock()

	log.Info().
		Uint64("shot_id", id).
		Str("source", shot.Source).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Dur("took", shot.Took).
		Msg("Screenshot taken")
	s.notify(Event{
		Type:   EventCompleted,
		ShotID: id,
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
		Time:   s.now(),
	})
	return shot, nil
}

// capture runs one capture and names the session kind and backend used.
// The session kind is empty for capturers that do not route.
func (s *Shutter) capture() (*image.NRGBA, string, string, error) {
	if r, ok := s.capturer.(Router); ok {
		img, kind, c, err := r.CaptureRouted()
		return img, kind.String(), c.Name(), err
	}
	img, err := s.capturer.Capture()
	return img, "", s.capturer.Name(), err
}

// Latest returns the most recent successful shot.
func (s *Shutter) Latest() (*Shot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.latest != nil
}

// Subscribe adds a listener for shutter events
func (s *Shutter) Subscribe() chan Event {
	ch := make(chan Event, 10)
	s.listenersMu.Lock()
	s.listeners = append(s.listeners, ch)
	s.listenersMu.Unlock()
	return ch
}

// Unsubscribe removes a listener
func (s *Shutter) Unsubscribe(ch chan Event) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	for i, listener := range s.listeners {
		if listener == ch {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			close(ch)
			break
		}
	}
}

// notify delivers ev to every listener, dropping it for listeners whose
// buffer is full.
func (s *Shutter) notify(ev Event) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	for _, ch := range s.listeners {
		select {
		case ch <- ev:
		default:
			logger.WithComponent("shutter").Debug().
				Str("type", string(ev.Type)).
				Msg("Dropping event for slow listener")
		}
	}
}
