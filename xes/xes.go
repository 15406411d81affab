package xes

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/0xrawsec/golang-utils/log"
	"github.com/beevik/etree"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding/ianaindex"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	// GzipSuffix files written with this suffix are gzip compressed
	GzipSuffix = ".gz"
)

// charsetReader decodes documents declaring an encoding other than UTF-8
// (ISO-8859-1 is common in XES exports)
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, errors.Errorf("unsupported charset %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}

// decompress returns data unchanged unless it starts with the gzip magic
func decompress(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, gzipMagic) {
		return data, nil
	}
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// ParseBytes parses a whole XES document, gzip compressed or not
// @data : document content
// return ([]*Log, error) : one Log per log element of the document
func ParseBytes(data []byte) ([]*Log, error) {
	data, err := decompress(data)
	if err != nil {
		return nil, errors.Wrap(err, "gunzip")
	}
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, errors.Wrapf(ErrMalformedXML, "%s", err)
	}
	if err := checkRoot(doc); err != nil {
		return nil, err
	}
	return ParseDocument(doc)
}

// checkRoot makes sure the document has a root element and no text outside
// of it
func checkRoot(doc *etree.Document) error {
	for _, tok := range doc.Child {
		if cd, ok := tok.(*etree.CharData); ok && strings.TrimSpace(cd.Data) != "" {
			return errors.Wrapf(ErrMalformedXML, "text outside of root element: %q", cd.Data)
		}
	}
	if len(doc.ChildElements()) == 0 {
		return errors.Wrap(ErrMalformedXML, "no root element")
	}
	return nil
}

// Parse reads r entirely and parses the XES document it contains
func Parse(r io.Reader) ([]*Log, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseBytes(data)
}

// Read parses the XES file at path
// @path : path of the file, it may be gzip compressed
// return ([]*Log, error)
func Read(path string) ([]*Log, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	log.Debugf("Parsing %s (%d bytes)", path, len(data))
	logs, err := ParseBytes(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	log.Debugf("Parsed %d log(s) from %s", len(logs), path)
	return logs, nil
}

// Encode writes the XES document of l to w
func Encode(l *Log, w io.Writer) error {
	return EncodeTokens(w, l.Tokens())
}

// Marshal returns the XES document of l
func Marshal(l *Log) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := Encode(l, buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write serializes l into the file at path, the content is gzip compressed
// when path ends with GzipSuffix
func Write(l *Log, path string) error {
	data, err := Marshal(l)
	if err != nil {
		return errors.Wrapf(err, "serialize %s", path)
	}

	if strings.HasSuffix(path, GzipSuffix) {
		buf := new(bytes.Buffer)
		w := gzip.NewWriter(buf)
		if _, err := w.Write(data); err != nil {
			return errors.Wrap(err, "gzip")
		}
		if err := w.Close(); err != nil {
			return errors.Wrap(err, "gzip")
		}
		data = buf.Bytes()
	}

	log.Debugf("Writing %s (%d bytes)", path, len(data))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

// Open is an alias of Read returning the first log of the file. It fails if
// the file does not contain any log.
func Open(path string) (*Log, error) {
	logs, err := Read(path)
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, errors.Errorf("%s: no log element", path)
	}
	return logs[0], nil
}
