package xes

import (
	"fmt"
	"strings"
)

// Record is the flat view of one event: its attributes together with the
// attributes of the trace owning it
type Record struct {
	// Index of the trace in the log, -1 for top level events
	TraceIndex int
	// Index of the event in its trace or in the top level events
	EventIndex int
	// Trace attributes, nil for top level events
	Trace Attributes
	Event Attributes
	// Tag is an arbitrary marker set by consumers (outputs) before
	// serialization
	Tag string
}

// RecordPath is a slash separated path inside a record, the first element
// selects the bag (trace or event)
type RecordPath []string

// Path converts s (e.g. /event/concept:name) into a RecordPath
func Path(s string) RecordPath {
	return strings.Split(strings.Trim(s, "/"), "/")
}

func (p RecordPath) String() string {
	return "/" + strings.Join(p, "/")
}

// ErrRecordEltNotFound is returned when nothing is found at a path of a
// record
type ErrRecordEltNotFound struct {
	path RecordPath
}

func (e *ErrRecordEltNotFound) Error() string {
	return fmt.Sprintf("Element at path %v not found", e.path)
}

// Records returns one record per event of the log: events of the traces in
// order, then the top level events
func (l *Log) Records() []*Record {
	rs := make([]*Record, 0, l.EventCount())
	for ti := range l.Traces {
		t := &l.Traces[ti]
		for ei := range t.Events {
			rs = append(rs, &Record{
				TraceIndex: ti,
				EventIndex: ei,
				Trace:      t.Attributes,
				Event:      t.Events[ei].Attributes,
			})
		}
	}
	for ei := range l.Events {
		rs = append(rs, &Record{
			TraceIndex: -1,
			EventIndex: ei,
			Event:      l.Events[ei].Attributes,
		})
	}
	return rs
}

// Get returns the attribute found at path
// @path : trace or event followed by the keys to traverse
// return (Attribute, error)
func (r *Record) Get(path RecordPath) (Attribute, error) {
	if len(path) > 1 {
		var bag Attributes
		switch path[0] {
		case TagTrace:
			bag = r.Trace
		case TagEvent:
			bag = r.Event
		}
		if a, ok := bag.Get(path[1:]...); ok {
			return a, nil
		}
	}
	return nil, &ErrRecordEltNotFound{path}
}

// GetString returns the text of the string, date or id attribute at path
func (r *Record) GetString(path RecordPath) (string, error) {
	a, err := r.Get(path)
	if err != nil {
		return "", err
	}
	switch a.(type) {
	case String, DateTime, ID:
		return a.Text(), nil
	}
	return "", fmt.Errorf("Bad type expect string got %s", a.Kind())
}

// GetInt returns the long attribute at path
func (r *Record) GetInt(path RecordPath) (int64, error) {
	a, err := r.Get(path)
	if err != nil {
		return 0, err
	}
	if l, ok := a.(Long); ok {
		return int64(l), nil
	}
	return 0, fmt.Errorf("Bad type expect long got %s", a.Kind())
}

// Map converts the record to plain Go values: strings, int64, float64, bool
// and nested map[string]interface{} for lists
func (r *Record) Map() map[string]interface{} {
	m := map[string]interface{}{
		TagEvent: AttributesMap(r.Event),
	}
	if r.Trace != nil {
		m[TagTrace] = AttributesMap(r.Trace)
	}
	if r.Tag != "" {
		m["tags"] = r.Tag
	}
	return m
}

// AttributesMap converts a bag into plain Go values
func AttributesMap(attrs Attributes) map[string]interface{} {
	m := make(map[string]interface{}, len(attrs))
	for k, a := range attrs {
		switch v := a.(type) {
		case List:
			m[k] = AttributesMap(Attributes(v))
		case Long:
			m[k] = int64(v)
		case Double:
			m[k] = float64(v)
		case Boolean:
			m[k] = bool(v)
		case nil:
			continue
		default:
			m[k] = v.Text()
		}
	}
	return m
}
