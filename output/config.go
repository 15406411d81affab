package output

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Types of outputs
const (
	TypeHTTP     = "http"
	TypeTCP      = "tcp"
	TypeKafka    = "kafka"
	TypeElastic  = "elastic"
	TypePostgres = "postgres"
)

type KafkaConfig struct {
	Brokers  string `yaml:"brokers"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
}

type ElasticConfig struct {
	URL   string `yaml:"url"`
	Index string `yaml:"index"`
}

type PostgresConfig struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

// Config selects and configures the output records are forwarded to
type Config struct {
	Type     string         `yaml:"type"`
	Tag      string         `yaml:"tag"`
	HTTP     string         `yaml:"http"`
	TCP      string         `yaml:"tcp"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Elastic  ElasticConfig  `yaml:"elastic"`
	Postgres PostgresConfig `yaml:"postgres"`
}

func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}

	if cfg.Postgres.Table == "" {
		cfg.Postgres.Table = DefaultTable
	}

	return &cfg, nil
}

// New creates the output described by cfg and opens it
func New(cfg *Config) (Output, error) {
	var out Output
	var url string

	switch cfg.Type {
	case TypeHTTP:
		out, url = &HttpJSON{Url: cfg.HTTP, Tag: cfg.Tag}, cfg.HTTP
	case TypeTCP:
		out, url = &TcpJSON{Tag: cfg.Tag}, cfg.TCP
	case TypeKafka:
		out, url = &Kafka{
			BrokerURLs: cfg.Kafka.Brokers,
			Topic:      cfg.Kafka.Topic,
			ClientID:   cfg.Kafka.ClientID,
			Tag:        cfg.Tag,
		}, cfg.Kafka.Brokers
	case TypeElastic:
		out, url = &Elastic{IndexName: cfg.Elastic.Index, EsUrl: cfg.Elastic.URL, Tag: cfg.Tag}, cfg.Elastic.URL
	case TypePostgres:
		out, url = &Postgres{Table: cfg.Postgres.Table, DSN: cfg.Postgres.DSN, Tag: cfg.Tag}, cfg.Postgres.DSN
	default:
		return nil, errors.Errorf("Unknown output type %q", cfg.Type)
	}

	if err := out.Open(url); err != nil {
		return nil, errors.Wrapf(err, "Can't init %s output", cfg.Type)
	}
	return out, nil
}
