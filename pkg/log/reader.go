package log

import (
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Filter specifies criteria for filtering capture events.
// Empty/nil fields match all events for that criterion.
type Filter struct {
	// MemberID filters by exact member ID match.
	MemberID string

	// Direction filters by message direction.
	Direction *Direction

	// Category filters by event category.
	Category *Category

	// Procedure filters by coordinator procedure.
	Procedure *Procedure

	// TimeStart filters events at or after this time.
	TimeStart *time.Time

	// TimeEnd filters events before this time.
	TimeEnd *time.Time
}

// matches returns true if the event matches all filter criteria.
func (f *Filter) matches(event Event) bool {
	if f.MemberID != "" && event.MemberID != f.MemberID {
		return false
	}
	if f.Direction != nil && event.Direction != *f.Direction {
		return false
	}
	if f.Category != nil && event.Category != *f.Category {
		return false
	}
	if f.Procedure != nil && event.Procedure != *f.Procedure {
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

// Reader reads coordination events from a CBOR-encoded capture file.
// It provides an iterator interface for streaming large files.
type Reader struct {
	file    *os.File
	decoder *cbor.Decoder
	filter  *Filter
}

// NewReader opens a capture file for reading.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{
		file:    f,
		decoder: NewDecoder(f),
	}, nil
}

// NewFilteredReader opens a capture file for reading; Next only returns
// events matching the filter.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	r.filter = &filter
	return r, nil
}

// Next returns the next event in the file (the next matching event when
// the Reader was built with a filter).
// It returns io.EOF when the end of the file is reached.
func (r *Reader) Next() (Event, error) {
	for {
		var event Event
		if err := r.decoder.Decode(&event); err != nil {
			return Event{}, err
		}
		if r.filter == nil || r.filter.matches(event) {
			return event, nil
		}
	}
}

// ReadAll reads all remaining events matching the filter.
// A nil filter matches every event.
func (r *Reader) ReadAll(filter *Filter) ([]Event, error) {
	var events []Event
	for {
		event, err := r.Next()
		if err == io.EOF {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		if filter == nil || filter.matches(event) {
			events = append(events, event)
		}
	}
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
