package xes

import (
	"math"

	"github.com/valyala/fastjson"
)

func attributeValue(a *fastjson.Arena, attr Attribute) *fastjson.Value {
	switch v := attr.(type) {
	case List:
		return attributesValue(a, Attributes(v))
	case Long:
		return a.NewNumberString(v.Text())
	case Double:
		// NaN and infinities have no JSON number form
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return a.NewString(v.Text())
		}
		return a.NewNumberString(v.Text())
	case Boolean:
		if v {
			return a.NewTrue()
		}
		return a.NewFalse()
	case nil:
		return a.NewNull()
	}
	return a.NewString(attr.Text())
}

func attributesValue(a *fastjson.Arena, attrs Attributes) *fastjson.Value {
	o := a.NewObject()
	for _, k := range attrs.Keys() {
		o.Set(k, attributeValue(a, attrs[k]))
	}
	return o
}

// ToJSON renders the attributes as a JSON object, keys sorted
func (attrs Attributes) ToJSON() []byte {
	var a fastjson.Arena
	return attributesValue(&a, attrs).MarshalTo(nil)
}

// ToJSON renders the record as {"trace":{...},"event":{...},"tags":"..."}.
// The trace member is absent for top level events and tags is absent when
// the record has no tag.
func (r *Record) ToJSON() []byte {
	var a fastjson.Arena
	o := a.NewObject()
	if r.Trace != nil {
		o.Set(TagTrace, attributesValue(&a, r.Trace))
	}
	o.Set(TagEvent, attributesValue(&a, r.Event))
	if r.Tag != "" {
		o.Set("tags", a.NewString(r.Tag))
	}
	return o.MarshalTo(nil)
}
