// Package eventstreamutils is the eventstream utility package
package eventstreamutils

import (
	"go.uber.org/zap"

	"github.com/foliostack/folio/pkg/eventstream"
	"github.com/foliostack/folio/pkg/eventstream/kafka"
	"github.com/foliostack/folio/pkg/eventstream/nop"
)

type NewPublisherOpts struct {
	// Brokers are the Kafka bootstrap addresses. Empty selects the
	// discarding publisher.
	Brokers []string

	Topic string

	Logger *zap.Logger
}

func NewPublisher(o *NewPublisherOpts) (eventstream.Publisher, error) {
	if len(o.Brokers) == 0 {
		return nop.NewPublisher(), nil
	}

	return kafka.NewPublisher(kafka.Config{
		Brokers: o.Brokers,
		Topic:   o.Topic,
	}, o.Logger)
}
