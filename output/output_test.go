package output

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/0xrawsec/golang-xes/xes"
	"github.com/klauspost/compress/gzip"
	pgxmock "github.com/pashagolub/pgxmock/v3"
)

func record() *xes.Record {
	return &xes.Record{
		TraceIndex: 0,
		EventIndex: 1,
		Trace:      xes.Attributes{"concept:name": xes.String("case")},
		Event:      xes.Attributes{"amount": xes.Long(42)},
	}
}

const recordJSON = `{"trace":{"concept:name":"case"},"event":{"amount":42},"tags":"test"}`

func TestTcpJSON(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	lines := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			close(lines)
			return
		}
		defer conn.Close()
		line, _ := bufio.NewReader(conn).ReadString('\n')
		lines <- line
	}()

	out := &TcpJSON{Tag: "test"}
	if err := out.Open(ln.Addr().String()); err != nil {
		t.Fatal(err)
	}
	defer out.Close()
	out.Request(record())

	if line := <-lines; line != recordJSON+"\n" {
		t.Errorf("Bad line received %q", line)
	}
}

func TestTcpJSONOpenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	if err := (&TcpJSON{}).Open(addr); err == nil {
		t.Errorf("Open should fail without listener")
	}
}

func TestHttpJSON(t *testing.T) {
	bodies := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Bad content type %q", r.Header.Get("Content-Type"))
		}
		b, _ := io.ReadAll(r.Body)
		bodies <- string(b)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	out, err := New(&Config{Type: TypeHTTP, HTTP: srv.URL, Tag: "test"})
	if err != nil {
		t.Fatal(err)
	}
	out.Request(record())

	if body := <-bodies; body != recordJSON {
		t.Errorf("Bad body received %q", body)
	}
}

func TestElastic(t *testing.T) {
	bodies := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodHead && r.URL.Path == "/":
			w.WriteHeader(http.StatusOK)
		case strings.HasPrefix(r.URL.Path, "/xes/_doc"):
			var body io.Reader = r.Body
			if r.Header.Get("Content-Encoding") == "gzip" {
				gz, err := gzip.NewReader(r.Body)
				if err != nil {
					t.Errorf("Bad gzip body: %s", err)
					return
				}
				defer gz.Close()
				body = gz
			}
			b, _ := io.ReadAll(body)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			io.WriteString(w, `{"_index":"xes","_id":"1","_version":1,"result":"created"}`)
			bodies <- b
		default:
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cfg := &Config{Type: TypeElastic, Tag: "test"}
	cfg.Elastic.URL = srv.URL
	cfg.Elastic.Index = "xes"
	out, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	r := record()
	out.Request(r)

	select {
	case b := <-bodies:
		var got, expected interface{}
		if err := json.Unmarshal(b, &got); err != nil {
			t.Fatalf("Bad indexed document %q: %s", b, err)
		}
		data, _ := json.Marshal(r.Map())
		json.Unmarshal(data, &expected)
		if !reflect.DeepEqual(got, expected) {
			t.Errorf("Bad indexed document\nexpected: %s\ngot:      %s", data, b)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Record not indexed")
	}
}

func TestClosers(t *testing.T) {
	for _, o := range []Output{&TcpJSON{}, &Kafka{}, &Postgres{}} {
		c, ok := o.(io.Closer)
		if !ok {
			t.Errorf("%T cannot be closed", o)
			continue
		}
		if err := c.Close(); err != nil {
			t.Errorf("%T: closing an unopened output failed: %s", o, err)
		}
	}
}

func TestPostgres(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO "xes_events" \(trace_index, event_index, trace, event, tags\)`).
		WithArgs(0, 1, `{"concept:name":"case"}`, `{"amount":42}`, "test").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO "custom"`).
		WithArgs(-1, 0, `{}`, `{}`, "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	out := &Postgres{pool: mock, Tag: "test"}
	if err := out.Insert(context.Background(), record()); err != nil {
		t.Errorf("Insert failed: %v", err)
	}

	out = &Postgres{pool: mock, Table: "custom"}
	out.Request(&xes.Record{TraceIndex: -1, Event: xes.Attributes{}})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xesdump.yaml")
	conf := `type: kafka
tag: xes
kafka:
  brokers: localhost:9092
  topic: events
  client_id: xesdump
`
	if err := os.WriteFile(path, []byte(conf), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %s", err)
	}
	if cfg.Type != TypeKafka || cfg.Tag != "xes" || cfg.Kafka.Topic != "events" || cfg.Kafka.ClientID != "xesdump" {
		t.Errorf("Bad config %+v", cfg)
	}
	if cfg.Postgres.Table != DefaultTable {
		t.Errorf("Default table not set: %q", cfg.Postgres.Table)
	}

	// the kafka writer connects lazily
	out, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	k, ok := out.(*Kafka)
	if !ok || k.BrokerURLs != "localhost:9092" || k.Tag != "xes" {
		t.Errorf("Bad output %#v", out)
	}
	k.Close()
}

func TestNewUnknownType(t *testing.T) {
	if _, err := New(&Config{Type: "smtp"}); err == nil {
		t.Errorf("Unknown type should fail")
	}
}
