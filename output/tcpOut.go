package output

import (
	"fmt"
	"net"

	"github.com/0xrawsec/golang-utils/log"
	"github.com/0xrawsec/golang-xes/xes"
	"github.com/pkg/errors"
)

// TcpJSON sends one JSON document per line over a TCP connection
type TcpJSON struct {
	conn net.Conn
	Tag  string
}

func (tj *TcpJSON) Open(url string) (err error) {
	tj.conn, err = net.Dial("tcp", url)
	if err != nil {
		return errors.New(fmt.Sprintf("Can't connect to remote tcp log server: %s", url))
	}
	return nil
}

func (tj *TcpJSON) Request(message *xes.Record) {
	message.Tag = tj.Tag
	if _, err := tj.conn.Write(append(message.ToJSON(), '\n')); err != nil {
		log.Errorf("Can't send record to tcp log server: %s", err)
	}
}

// Close closes the underlying connection
func (tj *TcpJSON) Close() error {
	if tj.conn == nil {
		return nil
	}
	return tj.conn.Close()
}
