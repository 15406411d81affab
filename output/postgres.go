package output

import (
	"context"
	"fmt"
	"time"

	"github.com/0xrawsec/golang-utils/log"
	"github.com/0xrawsec/golang-xes/xes"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultTable is the table records are inserted into when none is configured.
// Expected schema:
//
//	CREATE TABLE xes_events (
//	    trace_index integer,
//	    event_index integer,
//	    trace       jsonb,
//	    event       jsonb,
//	    tags        text
//	);
const DefaultTable = "xes_events"

// execer is the part of a pgx pool used by Postgres
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Close()
}

// Postgres inserts one row per record
type Postgres struct {
	pool  execer
	DSN   string
	Table string
	Tag   string
}

// Open connects to the database, url is the DSN of the database and
// overrides the DSN field when not empty
func (p *Postgres) Open(url string) error {
	if url != "" {
		p.DSN = url
	}
	cfg, err := pgxpool.ParseConfig(p.DSN)
	if err != nil {
		return err
	}
	cfg.MaxConns = 4
	cfg.MaxConnLifetime = 30 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return err
	}
	p.pool = pool
	return nil
}

func (p *Postgres) insertQuery() string {
	table := p.Table
	if table == "" {
		table = DefaultTable
	}
	return fmt.Sprintf("INSERT INTO %s (trace_index, event_index, trace, event, tags) VALUES ($1, $2, $3, $4, $5)",
		pgx.Identifier{table}.Sanitize())
}

// Insert inserts message into the table
func (p *Postgres) Insert(ctx context.Context, message *xes.Record) error {
	message.Tag = p.Tag
	_, err := p.pool.Exec(ctx, p.insertQuery(),
		message.TraceIndex,
		message.EventIndex,
		string(message.Trace.ToJSON()),
		string(message.Event.ToJSON()),
		message.Tag)
	return err
}

func (p *Postgres) Request(message *xes.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.Insert(ctx, message); err != nil {
		log.Errorf("Can't insert record into postgres: %s", err)
	}
}

// Close closes the connection pool
func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}
