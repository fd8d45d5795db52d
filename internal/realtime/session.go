package realtime

import (
	"sync"

	"github.com/google/uuid"
)

const sessionBuffer = 64

// Session is one connected browser tab, independent of its transport.
type Session struct {
	ID        string
	Transport string

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewSession(transport string) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Transport: transport,
		send:      make(chan []byte, sessionBuffer),
		done:      make(chan struct{}),
	}
}

// Messages yields encoded envelopes in publish order.
func (s *Session) Messages() <-chan []byte {
	return s.send
}

// Done is closed once the hub drops the session.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) close() {
	s.closeOnce.Do(func() { close(s.done) })
}
