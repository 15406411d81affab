package output

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/snappy"

	"github.com/0xrawsec/golang-utils/log"
	"github.com/0xrawsec/golang-xes/xes"
)

type Kafka struct {
	conn       *kafka.Writer
	BrokerURLs string
	ClientID   string
	Topic      string
	Tag        string
}

func (k *Kafka) Open(url string) error {
	if url != "" {
		k.BrokerURLs = url
	}

	dialer := &kafka.Dialer{
		Timeout:  10 * time.Second,
		ClientID: k.ClientID,
	}

	config := kafka.WriterConfig{
		Brokers:          []string{k.BrokerURLs},
		Topic:            k.Topic,
		Balancer:         &kafka.LeastBytes{},
		Dialer:           dialer,
		WriteTimeout:     10 * time.Second,
		ReadTimeout:      10 * time.Second,
		CompressionCodec: snappy.NewCompressionCodec(),
	}
	k.conn = kafka.NewWriter(config)
	return nil
}

func (k *Kafka) Request(message *xes.Record) {
	message.Tag = k.Tag
	body := kafka.Message{
		Key:   nil,
		Value: message.ToJSON(),
		Time:  time.Now(),
	}
	err := k.conn.WriteMessages(context.Background(), body)
	if err != nil {
		log.Error(err)
	}
}

// Close flushes and closes the writer
func (k *Kafka) Close() error {
	if k.conn == nil {
		return nil
	}
	return k.conn.Close()
}
