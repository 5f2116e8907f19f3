package queue

import (
	"context"
	"fmt"
	"log"

	config "github.com/Plaidmustache/evo-api-ghl-sub000/configs"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQ publishes bridge usage events to the platform exchange. The
// bridge only produces; accounting consumers live elsewhere. An unset
// RABBITMQ_URL leaves the publisher disabled and every Publish becomes a
// no-op, so call sites never guard for it.
type RabbitMQ struct {
	Channel    *amqp.Channel
	Connection *amqp.Connection
	Configs    *config.Config
}

func NewRabbitMQ(configs *config.Config) *RabbitMQ {
	return &RabbitMQ{
		Channel:    nil,
		Connection: nil,
		Configs:    configs,
	}
}

func (rmq *RabbitMQ) Enabled() bool {
	return rmq != nil && rmq.Configs != nil && rmq.Configs.RabbitMQUrl != ""
}

func (rmq *RabbitMQ) Setup() error {
	if err := rmq.DeclareExchange(rmq.Configs.BridgeEventsExchange, "direct"); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", rmq.Configs.BridgeEventsExchange, err)
	}

	if rmq.Configs.BridgeEventsQueue != "" {
		if err := rmq.DeclareQueue(rmq.Configs.BridgeEventsQueue); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", rmq.Configs.BridgeEventsQueue, err)
		}
		if err := rmq.BindQueue(rmq.Configs.BridgeEventsExchange, rmq.Configs.BridgeEventsRoutingKey, rmq.Configs.BridgeEventsQueue); err != nil {
			return fmt.Errorf("failed to bind queue %s to exchange %s: %w", rmq.Configs.BridgeEventsQueue, rmq.Configs.BridgeEventsExchange, err)
		}
	}

	log.Printf("[RABBITMQ] - Setup completed\n")

	return nil
}

func (rmq *RabbitMQ) Dial() error {
	if !rmq.Enabled() {
		log.Printf("[RABBITMQ] - Not configured, usage events disabled\n")
		return nil
	}

	var connectionString string
	if rmq.Configs.Environment == "development" || rmq.Configs.Environment == "staging" {
		connectionString = fmt.Sprintf("amqp://%s:%s@%s:%s", rmq.Configs.RabbitMQUser, rmq.Configs.RabbitMQPassword, rmq.Configs.RabbitMQUrl, rmq.Configs.RabbitMQPort)
	} else {
		connectionString = fmt.Sprintf("amqps://%s:%s@%s:%s", rmq.Configs.RabbitMQUser, rmq.Configs.RabbitMQPassword, rmq.Configs.RabbitMQUrl, rmq.Configs.RabbitMQPort)
	}

	connection, err := amqp.Dial(connectionString)
	if err != nil {
		return fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}
	rmq.Connection = connection
	channel, err := rmq.Connection.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	rmq.Channel = channel

	if err := rmq.Setup(); err != nil {
		return fmt.Errorf("failed to set up RabbitMQ: %w", err)
	}

	log.Printf("[RABBITMQ] - Connection established \n")
	return nil
}

// Publish sends one JSON body to the bridge events exchange. Publishing is
// best effort; a disabled publisher accepts and drops the event.
func (rmq *RabbitMQ) Publish(ctx context.Context, body []byte) error {
	if !rmq.Enabled() || rmq.Channel == nil {
		return nil
	}

	err := rmq.Channel.PublishWithContext(ctx,
		rmq.Configs.BridgeEventsExchange,
		rmq.Configs.BridgeEventsRoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

func (rmq *RabbitMQ) DeclareExchange(exchange, exType string) error {
	err := rmq.Channel.ExchangeDeclare(
		exchange,
		exType,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}
	return nil
}

func (rmq *RabbitMQ) DeclareQueue(queue string) error {
	_, err := rmq.Channel.QueueDeclare(
		queue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}
	return nil
}

func (rmq *RabbitMQ) BindQueue(exchange, routingKey, queue string) error {
	err := rmq.Channel.QueueBind(
		queue,
		routingKey,
		exchange,
		false,
		nil,
	)
	if err != nil {
		return err
	}
	return nil
}

func (rmq *RabbitMQ) Close() error {
	if rmq.Channel != nil {
		if err := rmq.Channel.Close(); err != nil {
			return fmt.Errorf("failed to close channel: %w", err)
		}
		rmq.Channel = nil
	}
	if rmq.Connection != nil {
		if err := rmq.Connection.Close(); err != nil {
			return fmt.Errorf("failed to close connection: %w", err)
		}
		rmq.Connection = nil
	}
	return nil
}
