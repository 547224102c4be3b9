package mqtt

import (
	"log"
	"sync"
)

// backlogSize holds a little over ten minutes of window reports.
const backlogSize = 640

// message stores a serialized MQTT message for replay after reconnection.
type message struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// backlog is a fixed-capacity FIFO that keeps the newest messages while
// disconnected.
type backlog struct {
	mu      sync.Mutex
	buf     []message
	head    int // next write position
	count   int
	dropped int // since last drain
}

func newBacklog(capacity int) *backlog {
	return &backlog{buf: make([]message, capacity)}
}

func (b *backlog) push(msg message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == len(b.buf) {
		if b.dropped == 0 {
			log.Printf("mqtt: backlog full (%d messages), dropping oldest", len(b.buf))
		}
		b.dropped++
	} else {
		b.count++
	}
	// when full, head already points at the oldest
	b.buf[b.head] = msg
	b.head = (b.head + 1) % len(b.buf)
}

// drain returns the buffered messages oldest first and empties the backlog.
func (b *backlog) drain() ([]message, int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return nil, 0
	}

	out := make([]message, b.count)
	start := (b.head - b.count + len(b.buf)) % len(b.buf)
	for i := range out {
		out[i] = b.buf[(start+i)%len(b.buf)]
	}
	dropped := b.dropped

	b.count = 0
	b.head = 0
	b.dropped = 0
	return out, dropped
}

func (b *backlog) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}
