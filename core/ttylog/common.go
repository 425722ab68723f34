// Package ttylog records console sessions as timed input and output events
// and plays them back.
package ttylog

import (
	"io"
	"log"
	"sync"
	"time"
)

// Stream identifies the direction of recorded data.
type Stream string

const (
	StreamInput  Stream = "i"
	StreamOutput Stream = "o"
)

// Event is a chunk of terminal data at a point in time.
type Event struct {
	Time   time.Time
	Stream Stream
	Data   []byte
}

// LogSink receives log events.
type LogSink func(e *Event) error

// LogSource adapts log readers.
type LogSource interface {
	// Next fetches the next available log entry. It returns io.EOF if the source
	// has no more log entries.
	Next() (*Event, error)
}

// NewRealTimePlayback plays back the results in real-time.
// If maxSleep > 0, it's used as the maximum duration to pause.
func NewRealTimePlayback(maxSleep time.Duration, next LogSink) LogSink {
	var once sync.Once
	var prevTime time.Time

	return func(e *Event) error {
		once.Do(func() {
			prevTime = e.Time
		})

		delta := e.Time.Sub(prevTime)
		prevTime = e.Time

		if maxSleep > 0 {
			if delta > maxSleep {
				delta = maxSleep
			}
			time.Sleep(delta)
		}

		return next(e)
	}
}

// NewClientOutput writes output events to the given writer.
func NewClientOutput(w io.Writer) LogSink {
	return func(e *Event) error {
		if e.Stream != StreamOutput {
			return nil
		}
		_, err := w.Write(e.Data)
		return err
	}
}

// Replay reads a stream of events to a callback.
func Replay(recording LogSource, callback LogSink) (err error) {
	for {
		e, err := recording.Next()
		switch {
		case err == io.EOF:
			return nil
		case err != nil:
			return err
		}

		if err := callback(e); err != nil {
			return err
		}
	}
}

// Recorder tees console streams into a LogSink.
type Recorder struct {
	mutex  sync.Mutex
	output LogSink
	now    func() time.Time
}

// NewRecorder creates a recorder that forwards all events to output.
func NewRecorder(output LogSink) *Recorder {
	return &Recorder{output: output, now: time.Now}
}

func (r *Recorder) record(stream Stream, data []byte) {
	if len(data) == 0 {
		return
	}

	r.mutex.Lock()
	err := r.output(&Event{
		Time:   r.now(),
		Stream: stream,
		Data:   append([]byte(nil), data...),
	})
	r.mutex.Unlock()
	if err != nil {
		log.Print(err)
	}
}

// Writer records everything written to w as output.
func (r *Recorder) Writer(w io.Writer) io.Writer {
	return &recorderWriter{r: r, wrapped: w}
}

// Reader records everything read from rd as input.
func (r *Recorder) Reader(rd io.Reader) io.Reader {
	return &recorderReader{r: r, wrapped: rd}
}

type recorderReader struct {
	r       *Recorder
	wrapped io.Reader
}

func (rc *recorderReader) Read(p []byte) (int, error) {
	n, err := rc.wrapped.Read(p)
	rc.r.record(StreamInput, p[:n])
	return n, err
}

type recorderWriter struct {
	r       *Recorder
	wrapped io.Writer
}

func (rc *recorderWriter) Write(p []byte) (int, error) {
	n, err := rc.wrapped.Write(p)
	rc.r.record(StreamOutput, p[:n])
	return n, err
}
