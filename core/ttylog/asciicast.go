package ttylog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// AsciicastFileExt holds the suggested file extension for asciicast files.
const AsciicastFileExt = "cast"

func writeJSONLine(w io.Writer, structure interface{}) error {
	line, err := json.Marshal(structure)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "%s\n", string(line))
	return err
}

type asciicastHeader struct {
	Version   int               `json:"version"`
	Width     int               `json:"width"`
	Height    int               `json:"height"`
	Timestamp int64             `json:"timestamp"`
	Title     string            `json:"title,omitempty"`
	Env       map[string]string `json:"env,omitempty"`
}

// NewAsciicastLogSink creates a LogSink compatible with the asciicast v2
// format. The header is written with the first event.
//
// See: https://github.com/asciinema/asciinema/blob/develop/doc/asciicast-v2.md
func NewAsciicastLogSink(w io.Writer, title string) LogSink {
	var (
		start time.Time
		once  sync.Once
	)

	return func(e *Event) error {
		var headerErr error
		once.Do(func() {
			start = e.Time
			// Give generic settings that should work to display most outputs.
			headerErr = writeJSONLine(w, &asciicastHeader{
				Version:   2,
				Width:     80,
				Height:    24,
				Timestamp: start.Unix(),
				Title:     title,
				Env: map[string]string{
					"TERM":  "xterm-256color",
					"SHELL": "/bin/sh",
				},
			})
		})
		if headerErr != nil {
			return headerErr
		}

		return writeJSONLine(w, &asciicastLogLine{
			TimeSeconds: e.Time.Sub(start).Seconds(),
			EventType:   string(e.Stream),
			EventData:   string(e.Data),
		})
	}
}

type AsciicastLogSource struct {
	r      *bufio.Reader
	start  time.Time
	header sync.Once
}

var _ LogSource = (*AsciicastLogSource)(nil)

// NewAsciicastLogSource reads log events from an Asciicast formatted file.
func NewAsciicastLogSource(r io.Reader) *AsciicastLogSource {
	return &AsciicastLogSource{r: bufio.NewReader(r)}
}

// Next gets the next log entry, it returns io.EOF if there are no more.
func (log *AsciicastLogSource) Next() (*Event, error) {
	var headerErr error
	log.header.Do(func() {
		line, err := log.r.ReadBytes('\n')
		if err != nil {
			headerErr = err
			return
		}
		var header asciicastHeader
		if err := json.Unmarshal(line, &header); err != nil {
			headerErr = fmt.Errorf("malformed header: %w", err)
			return
		}
		if header.Version != 2 {
			headerErr = fmt.Errorf("unsupported asciicast version %d", header.Version)
			return
		}
		log.start = time.Unix(header.Timestamp, 0)
	})
	if headerErr != nil {
		return nil, headerErr
	}

	for {
		line, err := log.r.ReadBytes('\n')
		if err != nil {
			return nil, err
		}

		if len(line) == 1 {
			// Skip blank lines
			continue
		}

		var asciicastLine asciicastLogLine
		if err := json.Unmarshal(line, &asciicastLine); err != nil {
			return nil, err
		}

		stream := Stream(asciicastLine.EventType)
		if stream != StreamInput && stream != StreamOutput {
			// skip unknown events
			continue
		}

		return &Event{
			Time:   log.start.Add(secondsToDuration(asciicastLine.TimeSeconds)),
			Stream: stream,
			Data:   []byte(asciicastLine.EventData),
		}, nil
	}
}

type asciicastLogLine struct {
	TimeSeconds float64
	EventType   string
	EventData   string
}

func (log *asciicastLogLine) UnmarshalJSON(data []byte) error {
	var v []interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if count := len(v); count != 3 {
		return fmt.Errorf("malformed line, expected 3 entries got %d", count)
	}

	var timeOk, typeOk, dataOk bool
	log.TimeSeconds, timeOk = v[0].(float64)
	log.EventType, typeOk = v[1].(string)
	log.EventData, dataOk = v[2].(string)

	if !timeOk || !typeOk || !dataOk {
		return fmt.Errorf("malformed data in line: %q", v)
	}

	return nil
}

func (log *asciicastLogLine) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{log.TimeSeconds, log.EventType, log.EventData})
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
