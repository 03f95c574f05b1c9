package mp4mux

// Sink defines the consumer of finished byte ranges produced by a box stream.
//
// WriteChunk must fully consume data before returning. Ownership of data passes to
// the sink: the producer never reads or writes the slice again, so the sink may keep
// it and complete the actual I/O later.
type Sink interface {
	WriteChunk(data []byte) error // Receives the next contiguous range of output.
}

// SizedSink is implemented by sinks that know how many bytes they have accepted.
type SizedSink interface {
	Sink
	Written() int64 // Returns the total number of accepted bytes.
}

// AsyncSink is a sink that performs its I/O on a background goroutine.
type AsyncSink interface {
	Sink
	Done() <-chan struct{} // Channel closed once all queued chunks are processed.
	Err() error            // Returns the first I/O failure, if any.
	Close()                // Stops accepting chunks and waits for the queue to drain.
}
