package xes

import (
	"fmt"
	"strings"
)

// Extension declares the semantic convention behind an attribute key prefix
type Extension struct {
	Name   string
	Prefix string
	URI    string
}

// Standard extensions of the XES specification
var (
	ConceptExtension   = Extension{"Concept", "concept", "http://www.xes-standard.org/concept.xesext"}
	TimeExtension      = Extension{"Time", "time", "http://www.xes-standard.org/time.xesext"}
	LifecycleExtension = Extension{"Lifecycle", "lifecycle", "http://www.xes-standard.org/lifecycle.xesext"}
	OrgExtension       = Extension{"Organizational", "org", "http://www.xes-standard.org/org.xesext"}
	IdentityExtension  = Extension{"Identity", "identity", "http://www.xes-standard.org/identity.xesext"}
)

// Global holds the default attributes declared for a scope (trace or event)
type Global struct {
	Scope      string
	Attributes Attributes
}

// Classifier names a set of attribute keys identifying event classes. Keys is
// kept as declared.
type Classifier struct {
	Name string
	Keys string
}

// Fields splits the keys of the classifier on white spaces
func (c Classifier) Fields() []string {
	return strings.Fields(c.Keys)
}

// Event is an atomic occurrence, made of its attributes only
type Event struct {
	Attributes Attributes
}

// NewEvent creates an Event with an empty attribute bag
func NewEvent() Event {
	return Event{Attributes: make(Attributes)}
}

// Trace is one case of the process: an ordered list of events
type Trace struct {
	Attributes Attributes
	Events     []Event
}

// NewTrace creates a Trace with an empty attribute bag and no event
func NewTrace() Trace {
	return Trace{Attributes: make(Attributes)}
}

// Log is the top level XES container. It may own events directly in addition
// to the events of its traces.
type Log struct {
	Version     string
	Features    []string
	Extensions  []Extension
	Globals     []Global
	Classifiers []Classifier
	Attributes  Attributes
	Traces      []Trace
	Events      []Event
}

// NewLog creates an empty Log
// @version : version of the log, numeric
// @features : features declared by the log
func NewLog(version string, features ...string) *Log {
	return &Log{
		Version:    version,
		Features:   append(make([]string, 0, len(features)), features...),
		Attributes: make(Attributes),
	}
}

// Extension returns the extension declared with prefix
func (l *Log) Extension(prefix string) (Extension, bool) {
	for _, e := range l.Extensions {
		if e.Prefix == prefix {
			return e, true
		}
	}
	return Extension{}, false
}

// AddExtension appends e unless an extension with the same prefix is already
// declared. Returns true if e was appended.
func (l *Log) AddExtension(e Extension) bool {
	if _, ok := l.Extension(e.Prefix); ok {
		return false
	}
	l.Extensions = append(l.Extensions, e)
	return true
}

// Global returns the global attributes declared for scope
func (l *Log) Global(scope string) (Attributes, bool) {
	for _, g := range l.Globals {
		if g.Scope == scope {
			return g.Attributes, true
		}
	}
	return nil, false
}

// HasFeature returns true if feature is declared by the log
func (l *Log) HasFeature(feature string) bool {
	for _, f := range l.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// EventCount returns the number of events in the log, top level events
// included
func (l *Log) EventCount() (n int) {
	n = len(l.Events)
	for _, t := range l.Traces {
		n += len(t.Events)
	}
	return
}

func (l *Log) String() string {
	return fmt.Sprintf("XES %s features=%v extensions=%d attributes=%d traces=%d events=%d",
		l.Version, l.Features, len(l.Extensions), len(l.Attributes), len(l.Traces), l.EventCount())
}

// splitFeatures splits a features declaration, a blank declaration means no
// feature
func splitFeatures(s string) []string {
	features := make([]string, 0)
	if strings.TrimSpace(s) == "" {
		return features
	}
	for _, f := range strings.Split(s, FeatureSeparator) {
		features = append(features, strings.TrimSpace(f))
	}
	return features
}
