package output

import "github.com/0xrawsec/golang-xes/xes"

// Output forwards XES records to a remote collector
type Output interface {
	Open(url string) error
	Request(message *xes.Record)
}
