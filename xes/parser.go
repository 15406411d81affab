package xes

import (
	"strconv"
	"sync"

	"github.com/beevik/etree"
	"github.com/pkg/errors"
)

func errMissing(el *etree.Element, attr string) error {
	return errors.Wrapf(ErrMissingAttribute, "<%s> has no %q", el.Tag, attr)
}

// mandatory returns the value of attribute attr of el or an error if el does
// not carry it
func mandatory(el *etree.Element, attr string) (string, error) {
	a := el.SelectAttr(attr)
	if a == nil {
		return "", errMissing(el, attr)
	}
	return a.Value, nil
}

// parseAttribute parses an attribute element
// @el : element whose tag is an attribute tag
// return (key, Attribute, error)
func parseAttribute(el *etree.Element) (string, Attribute, error) {
	key, err := mandatory(el, "key")
	if err != nil {
		return "", nil, err
	}

	if v := el.SelectAttr("value"); v != nil {
		kind, ok := KindOf(el.Tag)
		if !ok || kind == KindList {
			return "", nil, errors.Wrapf(ErrUnknownTag, "<%s key=%q>", el.Tag, key)
		}
		attr, err := ParseScalar(kind, v.Value)
		if err != nil {
			return "", nil, errors.Wrapf(err, "key %q", key)
		}
		return key, attr, nil
	}

	// No value: the element is a list made of its attribute children
	children, err := parseAttributes(el)
	if err != nil {
		return "", nil, errors.Wrapf(err, "list %q", key)
	}
	return key, List(children), nil
}

// parseAttributes collects the attribute children of el, a later child
// overwrites an earlier one with the same key
func parseAttributes(el *etree.Element) (Attributes, error) {
	attrs := make(Attributes)
	for _, child := range el.ChildElements() {
		if !IsAttributeTag(child.Tag) {
			continue
		}
		k, v, err := parseAttribute(child)
		if err != nil {
			return nil, err
		}
		attrs[k] = v
	}
	return attrs, nil
}

func parseEvent(el *etree.Element) (e Event, err error) {
	e.Attributes, err = parseAttributes(el)
	return
}

func parseTrace(el *etree.Element) (t Trace, err error) {
	if t.Attributes, err = parseAttributes(el); err != nil {
		return
	}
	for _, child := range el.SelectElements(TagEvent) {
		e, err := parseEvent(child)
		if err != nil {
			return t, err
		}
		t.Events = append(t.Events, e)
	}
	return
}

// parseTraces parses trace elements keeping document order. Big logs are
// spread over MaxJobs goroutines, the first error encountered is returned.
func parseTraces(els []*etree.Element) ([]Trace, error) {
	if len(els) == 0 {
		return nil, nil
	}

	traces := make([]Trace, len(els))
	if MaxJobs <= 1 || len(els) < parallelTraceThreshold {
		for i, el := range els {
			t, err := parseTrace(el)
			if err != nil {
				return nil, errors.Wrapf(err, "trace #%d", i)
			}
			traces[i] = t
		}
		return traces, nil
	}

	var wg sync.WaitGroup
	var once sync.Once
	var firstErr error
	jobs := make(chan int)

	for w := 0; w < MaxJobs; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				t, err := parseTrace(els[i])
				if err != nil {
					once.Do(func() { firstErr = errors.Wrapf(err, "trace #%d", i) })
					continue
				}
				traces[i] = t
			}
		}()
	}
	for i := range els {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return traces, nil
}

func parseExtension(el *etree.Element) (e Extension, err error) {
	if e.Name, err = mandatory(el, "name"); err != nil {
		return
	}
	if e.Prefix, err = mandatory(el, "prefix"); err != nil {
		return
	}
	e.URI, err = mandatory(el, "uri")
	return
}

func parseGlobal(el *etree.Element) (g Global, err error) {
	if g.Scope, err = mandatory(el, "scope"); err != nil {
		return
	}
	g.Attributes, err = parseAttributes(el)
	return
}

func parseClassifier(el *etree.Element) (c Classifier, err error) {
	if c.Name, err = mandatory(el, "name"); err != nil {
		return
	}
	c.Keys, err = mandatory(el, "keys")
	return
}

// parseLog parses a log element and all its children
func parseLog(el *etree.Element) (*Log, error) {
	version, err := mandatory(el, "version")
	if err != nil {
		return nil, err
	}
	if _, err := strconv.ParseFloat(version, 64); err != nil {
		return nil, errors.Wrapf(ErrBadValue, "log version %q", version)
	}
	features, err := mandatory(el, "features")
	if err != nil {
		return nil, err
	}

	l := NewLog(version, splitFeatures(features)...)
	var traceEls []*etree.Element

	for _, child := range el.ChildElements() {
		switch {
		case child.Tag == TagExtension:
			e, err := parseExtension(child)
			if err != nil {
				return nil, err
			}
			l.Extensions = append(l.Extensions, e)
		case child.Tag == TagGlobal:
			g, err := parseGlobal(child)
			if err != nil {
				return nil, err
			}
			l.Globals = append(l.Globals, g)
		case child.Tag == TagClassifier:
			c, err := parseClassifier(child)
			if err != nil {
				return nil, err
			}
			l.Classifiers = append(l.Classifiers, c)
		case child.Tag == TagTrace:
			traceEls = append(traceEls, child)
		case child.Tag == TagEvent:
			e, err := parseEvent(child)
			if err != nil {
				return nil, errors.Wrapf(err, "event #%d", len(l.Events))
			}
			l.Events = append(l.Events, e)
		case IsAttributeTag(child.Tag):
			k, v, err := parseAttribute(child)
			if err != nil {
				return nil, err
			}
			l.Attributes[k] = v
		}
	}

	if l.Traces, err = parseTraces(traceEls); err != nil {
		return nil, err
	}
	return l, nil
}

// ParseDocument builds one Log per log element found at the root of doc
// @doc : parsed XML document
// return ([]*Log, error) : an empty slice if doc has no log element
func ParseDocument(doc *etree.Document) ([]*Log, error) {
	logs := make([]*Log, 0)
	for _, el := range doc.SelectElements(TagLog) {
		l, err := parseLog(el)
		if err != nil {
			return nil, errors.Wrapf(err, "log #%d", len(logs))
		}
		logs = append(logs, l)
	}
	return logs, nil
}
