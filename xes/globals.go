package xes

import (
	"math"
	"runtime"

	"github.com/pkg/errors"
)

/////////////////////////////////// Errors /////////////////////////////////////

var (
	// ErrMalformedXML is returned when the input is not well-formed markup
	ErrMalformedXML = errors.New("Malformed XML")
	// ErrMissingAttribute is returned when a mandatory XML attribute is absent
	ErrMissingAttribute = errors.New("Missing mandatory attribute")
	// ErrUnknownTag is returned for a scalar element whose tag is not an
	// attribute tag
	ErrUnknownTag = errors.New("Unrecognized attribute tag")
	// ErrBadValue is returned when a scalar value does not parse as its type
	ErrBadValue = errors.New("Bad attribute value")
)

//////////////////////// Global Variables and their setters /////////////////////

var (
	// MaxJobs controls the maximum number of goroutines used to parse the
	// traces of a log
	MaxJobs = int(math.Max(1, math.Floor(float64(runtime.NumCPU())/2)))
)

// SetMaxJobs sets MaxJobs, values lower than one are turned into one
func SetMaxJobs(jobs int) {
	if jobs < 1 {
		jobs = 1
	}
	MaxJobs = jobs
}

////////////////////////////////// XES Tags ////////////////////////////////////

const (
	TagLog        = "log"
	TagExtension  = "extension"
	TagGlobal     = "global"
	TagClassifier = "classifier"
	TagTrace      = "trace"
	TagEvent      = "event"

	TagList     = "list"
	TagString   = "string"
	TagDate     = "date"
	TagDateTime = "datetime"
	TagLong     = "long"
	TagDouble   = "double"
	TagBoolean  = "boolean"
	TagID       = "id"
)

const (
	// minimal number of traces before the parser spreads them on MaxJobs
	// goroutines
	parallelTraceThreshold = 64
	// FeatureSeparator separates the features of the log declaration
	FeatureSeparator = ","
)

var (
	// attributeTags maps every element tag holding an attribute to its kind.
	// Both date and datetime are read as DateTime, only date is written.
	attributeTags = map[string]Kind{
		TagList:     KindList,
		TagString:   KindString,
		TagDate:     KindDateTime,
		TagDateTime: KindDateTime,
		TagLong:     KindLong,
		TagDouble:   KindDouble,
		TagBoolean:  KindBoolean,
		TagID:       KindID,
	}

	// kindTags is the tag written for each kind
	kindTags = [...]string{
		KindList:     TagList,
		KindString:   TagString,
		KindDateTime: TagDate,
		KindLong:     TagLong,
		KindDouble:   TagDouble,
		KindBoolean:  TagBoolean,
		KindID:       TagID,
	}
)

// IsAttributeTag returns true if tag names an attribute element
func IsAttributeTag(tag string) bool {
	_, ok := attributeTags[tag]
	return ok
}

// KindOf returns the attribute kind of tag
func KindOf(tag string) (k Kind, ok bool) {
	k, ok = attributeTags[tag]
	return
}
