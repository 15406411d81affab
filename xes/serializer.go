package xes

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/pkg/errors"
)

var (
	// header written before the tokens of a log
	procInst = xml.ProcInst{Target: "xml", Inst: []byte(`version="1.0" encoding="UTF-8"`)}
)

// startElement creates a start token with attributes given as name, value
// pairs
func startElement(tag string, attrs ...string) xml.StartElement {
	se := xml.StartElement{Name: xml.Name{Local: tag}}
	for i := 0; i+1 < len(attrs); i += 2 {
		se.Attr = append(se.Attr, xml.Attr{Name: xml.Name{Local: attrs[i]}, Value: attrs[i+1]})
	}
	return se
}

func endElement(tag string) xml.EndElement {
	return xml.EndElement{Name: xml.Name{Local: tag}}
}

func appendAttribute(ts []xml.Token, key string, a Attribute) []xml.Token {
	tag := a.Kind().Tag()
	if l, ok := a.(List); ok {
		ts = append(ts, startElement(tag, "key", key))
		ts = appendAttributes(ts, Attributes(l))
		return append(ts, endElement(tag))
	}
	return append(ts, startElement(tag, "key", key, "value", a.Text()), endElement(tag))
}

// appendAttributes appends the attributes of the bag sorted by key, nil
// values are skipped
func appendAttributes(ts []xml.Token, attrs Attributes) []xml.Token {
	for _, k := range attrs.Keys() {
		if attrs[k] == nil {
			continue
		}
		ts = appendAttribute(ts, k, attrs[k])
	}
	return ts
}

func appendEvent(ts []xml.Token, e *Event) []xml.Token {
	ts = append(ts, startElement(TagEvent))
	ts = appendAttributes(ts, e.Attributes)
	return append(ts, endElement(TagEvent))
}

func appendTrace(ts []xml.Token, t *Trace) []xml.Token {
	ts = append(ts, startElement(TagTrace))
	ts = appendAttributes(ts, t.Attributes)
	for i := range t.Events {
		ts = appendEvent(ts, &t.Events[i])
	}
	return append(ts, endElement(TagTrace))
}

// Tokens returns the flat list of start and end elements representing the
// log. No element is self-closing and parsing the encoded tokens gives back
// an equivalent log.
func (l *Log) Tokens() []xml.Token {
	ts := make([]xml.Token, 0, 2+4*l.EventCount())
	ts = append(ts, startElement(TagLog,
		"version", l.Version,
		"features", strings.Join(l.Features, FeatureSeparator)))

	for _, e := range l.Extensions {
		ts = append(ts,
			startElement(TagExtension, "name", e.Name, "prefix", e.Prefix, "uri", e.URI),
			endElement(TagExtension))
	}

	for _, g := range l.Globals {
		ts = append(ts, startElement(TagGlobal, "scope", g.Scope))
		ts = appendAttributes(ts, g.Attributes)
		ts = append(ts, endElement(TagGlobal))
	}

	for _, c := range l.Classifiers {
		ts = append(ts,
			startElement(TagClassifier, "name", c.Name, "keys", c.Keys),
			endElement(TagClassifier))
	}

	ts = appendAttributes(ts, l.Attributes)

	for i := range l.Traces {
		ts = appendTrace(ts, &l.Traces[i])
	}

	for i := range l.Events {
		ts = appendEvent(ts, &l.Events[i])
	}

	return append(ts, endElement(TagLog))
}

// EncodeTokens writes an XML declaration followed by tokens to w
// @w : writer
// @tokens : balanced list of tokens, as returned by Log.Tokens
// return error
func EncodeTokens(w io.Writer, tokens []xml.Token) error {
	enc := xml.NewEncoder(w)
	enc.Indent("", "\t")
	if err := enc.EncodeToken(procInst); err != nil {
		return errors.Wrap(err, "encode header")
	}
	for _, t := range tokens {
		if err := enc.EncodeToken(t); err != nil {
			return errors.Wrapf(err, "encode %T", t)
		}
	}
	return enc.Flush()
}
