package net

import (
	"sync"
	"sync/atomic"
	"time"

	"rift-and-ruin/server/logging"
)

// subscriberConn is the narrow connection surface the hub writes to.
// *websocket.Conn satisfies it through the text adapter in handler.go.
type subscriberConn interface {
	Write(data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// subscriber owns one client connection. Frames are staged on a bounded
// queue and written by a dedicated goroutine so a slow client can never
// stall the broadcaster; when the queue is full the frame is dropped.
type subscriber struct {
	conn    subscriberConn
	clock   logging.Clock
	timeout time.Duration
	sendCh  chan []byte
	done    chan struct{}

	closeOnce sync.Once
	lastSeq   atomic.Uint64
	onDrop    func(queued int)
}

func newSubscriber(conn subscriberConn, clock logging.Clock, timeout time.Duration, queueSize int, onDrop func(queued int)) *subscriber {
	if clock == nil {
		clock = logging.SystemClock{}
	}
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	if queueSize <= 0 {
		queueSize = defaultSendQueueSize
	}
	sub := &subscriber{
		conn:    conn,
		clock:   clock,
		timeout: timeout,
		sendCh:  make(chan []byte, queueSize),
		done:    make(chan struct{}),
		onDrop:  onDrop,
	}
	go sub.writeLoop()
	return sub
}

func (s *subscriber) writeLoop() {
	for {
		select {
		case <-s.done:
			return
		case data := <-s.sendCh:
			s.conn.SetWriteDeadline(s.clock.Now().Add(s.timeout))
			if err := s.conn.Write(data); err != nil {
				s.Close()
				return
			}
		}
	}
}

// Send stages a frame for delivery. Returns false when the frame was
// dropped because the queue is full or the subscriber is closed.
func (s *subscriber) Send(data []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.sendCh <- data:
		return true
	default:
		if s.onDrop != nil {
			s.onDrop(len(s.sendCh))
		}
		return false
	}
}

// Close stops the writer and closes the connection. Safe to call from
// any goroutine, any number of times.
func (s *subscriber) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

// Closed reports whether the subscriber has shut down.
func (s *subscriber) Closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// LastCommandSeq returns the highest acknowledged command sequence.
func (s *subscriber) LastCommandSeq() uint64 {
	return s.lastSeq.Load()
}

// StoreLastCommandSeq records a newly acknowledged command sequence.
func (s *subscriber) StoreLastCommandSeq(seq uint64) {
	s.lastSeq.Store(seq)
}
