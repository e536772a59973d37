package eventlog

import (
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Filter specifies criteria for selecting events during replay.
// Empty/nil fields match all events for that criterion.
type Filter struct {
	// RunID filters by exact detection run id.
	RunID string

	// MeshID filters by exact mesh content id.
	MeshID string

	// Stage filters by pipeline stage.
	Stage *Stage

	// Category filters by event category.
	Category *Category

	// TimeStart keeps events at or after this time.
	TimeStart *time.Time

	// TimeEnd keeps events before this time.
	TimeEnd *time.Time
}

// matches returns true if the event satisfies all filter criteria.
func (f *Filter) matches(event Event) bool {
	if f.RunID != "" && event.RunID != f.RunID {
		return false
	}
	if f.MeshID != "" && event.MeshID != f.MeshID {
		return false
	}
	if f.Stage != nil && event.Stage != *f.Stage {
		return false
	}
	if f.Category != nil && event.Category != *f.Category {
		return false
	}
	if f.TimeStart != nil && event.Timestamp.Before(*f.TimeStart) {
		return false
	}
	if f.TimeEnd != nil && !event.Timestamp.Before(*f.TimeEnd) {
		return false
	}
	return true
}

// Reader streams events back out of a CBOR capture file.
type Reader struct {
	file    *os.File
	decoder *cbor.Decoder
	filter  Filter
}

// NewReader creates a Reader over all events in the capture file.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader creates a Reader returning only matching events.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{
		file:    f,
		decoder: NewDecoder(f),
		filter:  filter,
	}, nil
}

// Next returns the next matching event, or io.EOF when the capture is
// exhausted.
func (r *Reader) Next() (Event, error) {
	for {
		var event Event
		if err := r.decoder.Decode(&event); err != nil {
			if err == io.EOF {
				return Event{}, io.EOF
			}
			return Event{}, err
		}
		if r.filter.matches(event) {
			return event, nil
		}
	}
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
