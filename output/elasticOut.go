package output

import (
	"context"
	"time"

	"github.com/0xrawsec/golang-utils/log"
	"github.com/0xrawsec/golang-xes/xes"
	"github.com/olivere/elastic/v7"
)

type Elastic struct {
	EsClient  *elastic.Client
	IndexName string
	EsUrl     string
	Tag       string
}

func (e *Elastic) Open(url string) (err error) {
	if url != "" {
		e.EsUrl = url
	}
	e.EsClient, err = elastic.NewClient(
		elastic.SetURL(e.EsUrl),
		elastic.SetSniff(false),
		elastic.SetHealthcheckInterval(10*time.Second),
		elastic.SetGzip(true),
	)
	return err
}

func (e *Elastic) Request(message *xes.Record) {
	message.Tag = e.Tag
	put, err := e.EsClient.Index().
		Index(e.IndexName).
		BodyJson(message.Map()).
		Do(context.Background())
	if err != nil {
		log.Errorf("Can 't connect to remote elastic log server: %s", e.EsUrl)
		return
	}
	log.Debugf("Indexed record %s to index %s", put.Id, put.Index)
}
