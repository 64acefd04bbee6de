package queue

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"
)

// Publisher sends auth events to downstream consumers.
type Publisher interface {
    Publish(ctx context.Context, ev AuthEvent) error
}

// NopPublisher drops every event. It is used when events are disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, AuthEvent) error { return nil }

// AMQPPublisher publishes AuthEvents to the auth.events queue. Each call
// dials the broker, so a broker outage only costs the failed publish; the
// error is logged and returned so the caller can choose to ignore it.
type AMQPPublisher struct {
    URL string
    Log zerolog.Logger
}

func NewAMQPPublisher(url string, log zerolog.Logger) *AMQPPublisher {
    return &AMQPPublisher{URL: url, Log: log}
}

// Publish marshals ev and publishes it as a persistent message.
func (p *AMQPPublisher) Publish(ctx context.Context, ev AuthEvent) error {
    conn, err := amqp.Dial(p.URL)
    if err != nil {
        p.Log.Warn().Err(err).Msg("rabbitmq: dial failed")
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.Log.Warn().Err(err).Msg("rabbitmq: channel open failed")
        return err
    }
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := declareAuthQueue(ch); err != nil {
        p.Log.Warn().Err(err).Msg("rabbitmq: queue declare failed")
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        Timestamp:    time.Now().UTC(),
        Type:         ev.Type,
        Body:         body,
    }

    if err := ch.PublishWithContext(ctx,
        "",              // default exchange
        AuthEventsQueue, // routing key = queue name
        false,           // mandatory
        false,           // immediate
        pub,
    ); err != nil {
        p.Log.Warn().Err(err).Str("type", ev.Type).Msg("rabbitmq: publish failed")
        return err
    }
    return nil
}

func declareAuthQueue(ch *amqp.Channel) (amqp.Queue, error) {
    return ch.QueueDeclare(
        AuthEventsQueue, // name
        true,            // durable
        false,           // autoDelete
        false,           // exclusive
        false,           // noWait
        nil,             // args
    )
}
