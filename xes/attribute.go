package xes

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/pkg/errors"
)

// Kind identifies the variant of an Attribute
type Kind uint8

const (
	KindList Kind = iota
	KindString
	KindDateTime
	KindLong
	KindDouble
	KindBoolean
	KindID
)

// Tag returns the element tag used to write an attribute of kind k
func (k Kind) Tag() string {
	if int(k) < len(kindTags) {
		return kindTags[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

func (k Kind) String() string {
	return k.Tag()
}

// Attribute is a typed XES value. The set of implementations is closed:
// String, DateTime, Long, Double, Boolean, ID and List.
type Attribute interface {
	Kind() Kind
	// Text returns the value as written in the value attribute of the XES
	// element. Lists have no value and return an empty string.
	Text() string
	isAttribute()
}

type (
	String   string
	DateTime string
	Long     int64
	Double   float64
	Boolean  bool
	ID       string
	// List is a nested attribute, its content is entirely made of its
	// children
	List Attributes
)

func (String) Kind() Kind   { return KindString }
func (DateTime) Kind() Kind { return KindDateTime }
func (Long) Kind() Kind     { return KindLong }
func (Double) Kind() Kind   { return KindDouble }
func (Boolean) Kind() Kind  { return KindBoolean }
func (ID) Kind() Kind       { return KindID }
func (List) Kind() Kind     { return KindList }

func (s String) Text() string   { return string(s) }
func (d DateTime) Text() string { return string(d) }
func (l Long) Text() string     { return strconv.FormatInt(int64(l), 10) }
func (d Double) Text() string   { return strconv.FormatFloat(float64(d), 'f', -1, 64) }
func (b Boolean) Text() string  { return strconv.FormatBool(bool(b)) }
func (i ID) Text() string       { return string(i) }
func (List) Text() string       { return "" }

func (String) isAttribute()   {}
func (DateTime) isAttribute() {}
func (Long) isAttribute()     {}
func (Double) isAttribute()   {}
func (Boolean) isAttribute()  {}
func (ID) isAttribute()       {}
func (List) isAttribute()     {}

// ParseScalar builds the scalar attribute of kind k out of its textual value
// @k : kind of the attribute, KindList is not a scalar
// @text : content of the value attribute
// return (Attribute, error)
func ParseScalar(k Kind, text string) (Attribute, error) {
	switch k {
	case KindString:
		return String(text), nil
	case KindDateTime:
		return DateTime(text), nil
	case KindID:
		return ID(text), nil
	case KindLong:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrBadValue, "long %q", text)
		}
		return Long(i), nil
	case KindDouble:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrBadValue, "double %q", text)
		}
		return Double(f), nil
	case KindBoolean:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, errors.Wrapf(ErrBadValue, "boolean %q", text)
		}
		return Boolean(b), nil
	}
	return nil, errors.Wrapf(ErrUnknownTag, "%s is not a scalar", k)
}

///////////////////////////////// Attributes ///////////////////////////////////

// Attributes is a key unique bag of attributes, iteration order is not
// significant
type Attributes map[string]Attribute

// Keys returns the keys of the bag in lexical order
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the attribute stored at key, nested lists are traversed with
// one key per level
func (a Attributes) Get(path ...string) (Attribute, bool) {
	if len(path) == 0 {
		return nil, false
	}
	attr, ok := a[path[0]]
	if !ok || len(path) == 1 {
		return attr, ok
	}
	if l, isList := attr.(List); isList {
		return Attributes(l).Get(path[1:]...)
	}
	return nil, false
}

// GetString returns the textual value at path for the text kinds (string,
// date, id)
func (a Attributes) GetString(path ...string) (string, bool) {
	attr, ok := a.Get(path...)
	if !ok {
		return "", false
	}
	switch v := attr.(type) {
	case String, DateTime, ID:
		return v.Text(), true
	}
	return "", false
}

// Has returns true if every key is present in the bag
func (a Attributes) Has(keys ...string) bool {
	for _, k := range keys {
		if _, ok := a[k]; !ok {
			return false
		}
	}
	return true
}
