// Package amqp publishes simulation events to a topic exchange so that
// external observers (UIs, recorders) can consume them off-process.
package amqp

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/pathwaylab/hybrid/sim"
)

var _ sim.Observer = (*Publisher)(nil)

// Publisher forwards step, reset and settings events to an AMQP topic
// exchange. Routing keys are <runID>.simulation.<event>.
type Publisher struct {
	ch       *amqp.Channel
	exchange string
	runID    string
	logger   *zap.Logger
}

// NewPublisher declares the exchange and returns a publisher. The
// channel stays owned by the caller.
func NewPublisher(ch *amqp.Channel, exchange, runID string, logger *zap.Logger) (*Publisher, error) {
	err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		false,    // durable
		false,    // delete when unused
		false,    // exclusive
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{ch: ch, exchange: exchange, runID: runID, logger: logger}, nil
}

func (p *Publisher) publish(event string, body interface{}) {
	bytes, err := json.Marshal(body)
	if err != nil {
		p.logger.Error("failed to marshal event", zap.String("event", event), zap.Error(err))
		return
	}
	err = p.ch.PublishWithContext(context.Background(),
		p.exchange,
		p.runID+".simulation."+event,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        bytes,
			Headers: amqp.Table{
				"x-run-id": p.runID,
			},
		},
	)
	if err != nil {
		p.logger.Error("failed to publish event", zap.String("event", event), zap.Error(err))
	}
}

func (p *Publisher) StepExecuted(e *sim.StepEvent) {
	p.publish("step", e)
}

func (p *Publisher) ResetExecuted() {
	p.publish("reset", struct{}{})
}

func (p *Publisher) SettingsChanged(s sim.Settings) {
	p.publish("settings", s)
}
