package xes

import (
	"github.com/google/uuid"
)

// IdentityKey is the attribute key of the identity extension
const IdentityKey = "identity:id"

// NewID returns a random (version 4) ID attribute
func NewID() ID {
	return ID(uuid.NewString())
}

func stamp(attrs Attributes) bool {
	if _, ok := attrs[IdentityKey]; ok {
		return false
	}
	attrs[IdentityKey] = NewID()
	return true
}

// Stamp gives an identity:id attribute to every trace and event of the log
// not having one and declares the identity extension if needed. Existing
// identifiers are never changed.
// return int : number of attributes added
func (l *Log) Stamp() (n int) {
	for ti := range l.Traces {
		t := &l.Traces[ti]
		if t.Attributes == nil {
			t.Attributes = make(Attributes)
		}
		if stamp(t.Attributes) {
			n++
		}
		for ei := range t.Events {
			if t.Events[ei].Attributes == nil {
				t.Events[ei].Attributes = make(Attributes)
			}
			if stamp(t.Events[ei].Attributes) {
				n++
			}
		}
	}
	for ei := range l.Events {
		if l.Events[ei].Attributes == nil {
			l.Events[ei].Attributes = make(Attributes)
		}
		if stamp(l.Events[ei].Attributes) {
			n++
		}
	}
	if n > 0 {
		l.AddExtension(IdentityExtension)
	}
	return
}
