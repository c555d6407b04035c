package observe

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogPublisher writes observations to the structured log. It is the
// default sink when no broker is configured.
type LogPublisher struct {
	logger logrus.FieldLogger
}

func NewLogPublisher(logger logrus.FieldLogger) *LogPublisher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, o Observation) error {
	p.logger.WithFields(logrus.Fields{
		"type":    o.Kind(),
		"payload": o,
	}).Info("observation")
	return nil
}
