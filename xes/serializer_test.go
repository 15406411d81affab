package xes

import (
	"bytes"
	"encoding/xml"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func sampleLog() *Log {
	l := NewLog("1.0", "nested-attributes", "program-attributes")
	l.AddExtension(ConceptExtension)
	l.AddExtension(TimeExtension)
	l.Globals = append(l.Globals, Global{Scope: "trace", Attributes: Attributes{"concept:name": String("UNKNOWN")}})
	l.Classifiers = append(l.Classifiers, Classifier{Name: "Activity", Keys: "concept:name"})
	l.Attributes["concept:name"] = String("sample <log> & \"quotes\"")
	l.Attributes["meta"] = List{
		"count":  Long(-3),
		"ratio":  Double(0.125),
		"nested": List{"flag": Boolean(true), "empty": List{}},
	}

	for i, name := range []string{"case-1", "case-2"} {
		t := NewTrace()
		t.Attributes["concept:name"] = String(name)
		for j, activity := range []string{"register", "check", "decide"} {
			e := NewEvent()
			e.Attributes["concept:name"] = String(activity)
			e.Attributes["time:timestamp"] = DateTime("2020-01-0" + string(rune('1'+j)) + "T10:00:00.000+00:00")
			e.Attributes["cost"] = Double(float64(i*10+j) + 0.5)
			e.Attributes["id"] = ID("e" + name + activity)
			t.Events = append(t.Events, e)
		}
		l.Traces = append(l.Traces, t)
	}

	e := NewEvent()
	e.Attributes["standalone"] = Boolean(false)
	l.Events = append(l.Events, e)
	return l
}

func TestRoundTrip(t *testing.T) {
	l := sampleLog()
	data, err := Marshal(l)
	if err != nil {
		t.Fatalf("Failed to serialize: %s", err)
	}
	t.Log(string(data))

	logs, err := ParseBytes(data)
	if err != nil {
		t.Fatalf("Failed to parse serialized log: %s", err)
	}
	if len(logs) != 1 {
		t.Fatalf("Expected one log, got %d", len(logs))
	}
	if !reflect.DeepEqual(logs[0], l) {
		t.Errorf("Round trip mismatch\nexpected: %#v\ngot:      %#v", l, logs[0])
	}
}

func TestRoundTripEmptyFeature(t *testing.T) {
	l := NewLog("1.0", "a", "", "b")
	data, err := Marshal(l)
	if err != nil {
		t.Fatal(err)
	}
	logs, err := ParseBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(logs[0].Features, l.Features) {
		t.Errorf("Expected features %q got %q", l.Features, logs[0].Features)
	}
}

func TestRoundTripSpecialDoubles(t *testing.T) {
	l := NewLog("1.0")
	l.Attributes["big"] = Double(1e300)
	l.Attributes["small"] = Double(-2.5e-10)
	l.Attributes["inf"] = Double(math.Inf(-1))

	data, err := Marshal(l)
	if err != nil {
		t.Fatal(err)
	}
	logs, err := ParseBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(logs[0].Attributes, l.Attributes) {
		t.Errorf("Doubles do not round trip: %v", logs[0].Attributes)
	}
}

func TestDateWrittenAsDate(t *testing.T) {
	l := NewLog("1.0")
	l.Attributes["time:timestamp"] = DateTime("2020-01-01T00:00:00Z")
	ts := l.Tokens()
	se, ok := ts[1].(xml.StartElement)
	if !ok {
		t.Fatalf("Expected a start element, got %T", ts[1])
	}
	if se.Name.Local != TagDate {
		t.Errorf("DateTime should be written as %q, got %q", TagDate, se.Name.Local)
	}
}

func TestTokensBalanced(t *testing.T) {
	ts := sampleLog().Tokens()
	stack := make([]string, 0)
	for i, tok := range ts {
		switch tk := tok.(type) {
		case xml.StartElement:
			stack = append(stack, tk.Name.Local)
		case xml.EndElement:
			if len(stack) == 0 || stack[len(stack)-1] != tk.Name.Local {
				t.Fatalf("Unbalanced end element %q at token %d", tk.Name.Local, i)
			}
			stack = stack[:len(stack)-1]
		default:
			t.Fatalf("Unexpected token %T", tok)
		}
	}
	if len(stack) != 0 {
		t.Errorf("Unclosed elements %v", stack)
	}

	first := ts[0].(xml.StartElement)
	attrs := make(map[string]string)
	for _, a := range first.Attr {
		attrs[a.Name.Local] = a.Value
	}
	if first.Name.Local != TagLog || attrs["version"] != "1.0" || attrs["features"] != "nested-attributes,program-attributes" {
		t.Errorf("Bad log start element %v", first)
	}
}

func TestListTokens(t *testing.T) {
	l := NewLog("1.0")
	l.Attributes["l"] = List{"a": Long(1)}
	ts := l.Tokens()
	expected := []xml.Token{
		startElement(TagLog, "version", "1.0", "features", ""),
		startElement(TagList, "key", "l"),
		startElement(TagLong, "key", "a", "value", "1"),
		endElement(TagLong),
		endElement(TagList),
		endElement(TagLog),
	}
	if !reflect.DeepEqual(ts, expected) {
		t.Errorf("Bad tokens\nexpected: %v\ngot:      %v", expected, ts)
	}
}

func TestNoSelfClosing(t *testing.T) {
	data, err := Marshal(sampleLog())
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(data, []byte("/>")) {
		t.Errorf("Output contains self-closing elements")
	}
	if !bytes.HasPrefix(data, []byte(`<?xml version="1.0" encoding="UTF-8"?>`)) {
		t.Errorf("Output misses the XML declaration")
	}
}

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := sampleLog()

	for _, name := range []string{"log.xes", "log.xes.gz"} {
		path := filepath.Join(dir, name)
		if err := Write(l, path); err != nil {
			t.Fatalf("Failed to write %s: %s", name, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if gz := bytes.HasPrefix(data, gzipMagic); gz != strings.HasSuffix(name, GzipSuffix) {
			t.Errorf("%s: unexpected compression (gzip=%t)", name, gz)
		}

		logs, err := Read(path)
		if err != nil {
			t.Fatalf("Failed to read %s: %s", name, err)
		}
		if len(logs) != 1 || !reflect.DeepEqual(logs[0], l) {
			t.Errorf("%s: round trip mismatch", name)
		}

		first, err := Open(path)
		if err != nil || first.Version != l.Version {
			t.Errorf("%s: Open failed: %v", name, err)
		}
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "missing.xes")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected a not exist error, got %v", err)
	}
}

func TestOpenEmptyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xes")
	if err := os.WriteFile(path, []byte(`<nolog/>`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Errorf("Open should fail on a document without log")
	}
}

func TestEncodeTokensError(t *testing.T) {
	ts := []xml.Token{endElement(TagLog)}
	if err := EncodeTokens(new(bytes.Buffer), ts); err == nil {
		t.Errorf("Unbalanced tokens should not encode")
	}
}
