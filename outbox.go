package ghost

import (
	"errors"
	"sync"
)

const outboxSize = 16

var (
	errOutboxFull   = errors.New("outbox full, packet dropped")
	errOutboxClosed = errors.New("outbox closed")
)

// outbox hands a socket's messages to a writer goroutine so a slow or
// stalled peer never blocks the sender.  Messages past capacity are
// dropped.  The writer stops on the first write error.
type outbox struct {
	q    chan []byte
	done chan struct{}
	once sync.Once
}

func newOutbox(size int, write func([]byte) error) *outbox {
	o := &outbox{
		q:    make(chan []byte, size),
		done: make(chan struct{}),
	}
	go o.run(write)
	return o
}

func (o *outbox) run(write func([]byte) error) {
	for {
		select {
		case <-o.done:
			return
		case msg := <-o.q:
			if err := write(msg); err != nil {
				o.close()
				return
			}
		}
	}
}

func (o *outbox) push(msg []byte) error {
	select {
	case <-o.done:
		return errOutboxClosed
	default:
	}
	select {
	case o.q <- msg:
		return nil
	default:
		return errOutboxFull
	}
}

func (o *outbox) closed() bool {
	select {
	case <-o.done:
		return true
	default:
		return false
	}
}

func (o *outbox) close() {
	o.once.Do(func() { close(o.done) })
}
