package llm

import "sync"

// StreamChunk is one increment of streamed content. The final chunk of a
// stream always has empty Content and Done set.
type StreamChunk struct {
	Content string `json:"content"`
	Done    bool   `json:"done"`
}

// Stream is a pull-based sequence of content chunks backed by a channel.
// It is single-reader: call Next until ok is false, then check Err.
// Close releases the producer early; it is safe to call more than once.
type Stream struct {
	ch     chan StreamChunk
	done   chan struct{}
	closeO sync.Once

	mu  sync.Mutex
	err error
}

// newStream creates a stream with a small producer buffer.
func newStream() *Stream {
	return &Stream{
		ch:   make(chan StreamChunk, 16),
		done: make(chan struct{}),
	}
}

// Next returns the next chunk. ok is false once the stream is exhausted or
// closed; the terminal sentinel chunk {"", true} is delivered before that.
func (s *Stream) Next() (chunk StreamChunk, ok bool) {
	chunk, ok = <-s.ch
	return chunk, ok
}

// Err returns the error that terminated the stream, if any.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close stops the stream. The producer observes the closure and abandons
// any in-flight provider request.
func (s *Stream) Close() {
	s.closeO.Do(func() {
		close(s.done)
	})
}

// send delivers a chunk to the reader, returning false when the stream has
// been closed by the consumer.
func (s *Stream) send(chunk StreamChunk) bool {
	select {
	case <-s.done:
		return false
	case s.ch <- chunk:
		return true
	}
}

// finish terminates the stream: records err, emits the terminal sentinel
// and closes the channel. Called exactly once by the producer.
func (s *Stream) finish(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()

	s.send(StreamChunk{Content: "", Done: true})
	close(s.ch)
}
