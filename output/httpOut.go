package output

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/0xrawsec/golang-utils/log"
	"github.com/0xrawsec/golang-xes/xes"
)

// HttpJSON posts every record as a JSON document
type HttpJSON struct {
	client *http.Client
	Url    string
	Tag    string
}

func (hj *HttpJSON) Open(url string) error {
	if url != "" {
		hj.Url = url
	}
	hj.client = &http.Client{Timeout: 10 * time.Second}
	return nil
}

func (hj *HttpJSON) Request(message *xes.Record) {
	message.Tag = hj.Tag
	req, err := http.NewRequest("POST", hj.Url, bytes.NewBuffer(message.ToJSON()))
	if err != nil {
		log.Errorf("Can't build request for %s: %s", hj.Url, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := hj.client.Do(req)
	if err != nil {
		log.Errorf("Can 't connect to remote http log server: %s", hj.Url)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		log.Errorf("Remote http log server %s answered %s", hj.Url, resp.Status)
	}
}
