package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

const writerQueueSize = 256

var errWriterClosed = errors.New("logger: writer closed")

// writeOp is either a log line or a flush request. Both travel through the
// same queue so a flush covers every line written before it.
type writeOp struct {
	line []byte
	ack  chan error
}

// asyncWriter fans log lines out to buffered sinks from one goroutine.
type asyncWriter struct {
	queue  chan writeOp
	done   chan struct{}
	sinks  []*bufio.Writer
	qmu    sync.RWMutex
	closed bool

	mu  sync.Mutex
	err error
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	w := &asyncWriter{
		queue: make(chan writeOp, writerQueueSize),
		done:  make(chan struct{}),
	}
	for _, out := range writers {
		if out != nil {
			w.sinks = append(w.sinks, bufio.NewWriterSize(out, bufSize))
		}
	}
	go w.loop()
	return w
}

func (w *asyncWriter) loop() {
	defer close(w.done)
	for op := range w.queue {
		if op.ack != nil {
			op.ack <- w.flushAll()
			continue
		}
		w.setErr(w.writeAll(op.line))
	}
	w.setErr(w.flushAll())
}

// Write copies p and queues it. A full queue blocks rather than dropping lines.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.getErr(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	return w.enqueue(writeOp{line: append([]byte(nil), p...)})
}

func (w *asyncWriter) enqueue(op writeOp) error {
	w.qmu.RLock()
	defer w.qmu.RUnlock()
	if w.closed {
		return errWriterClosed
	}
	w.queue <- op
	return nil
}

// Flush returns once every line queued before the call reached the sinks.
func (w *asyncWriter) Flush() error {
	ack := make(chan error, 1)
	if err := w.enqueue(writeOp{ack: ack}); err != nil {
		return err
	}
	return <-ack
}

// Close drains the queue and returns the first write error.
func (w *asyncWriter) Close() error {
	w.qmu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.qmu.Unlock()
	<-w.done
	return w.getErr()
}

func (w *asyncWriter) writeAll(p []byte) error {
	for _, sink := range w.sinks {
		if _, err := sink.Write(p); err != nil {
			return err
		}
		if err := sink.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func (w *asyncWriter) flushAll() error {
	var errs []error
	for _, sink := range w.sinks {
		if err := sink.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) getErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *asyncWriter) setErr(err error) {
	if err == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err == nil {
		w.err = err
	}
}
