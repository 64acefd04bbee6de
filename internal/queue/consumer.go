package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"
)

// StartAuditConsumer connects to RabbitMQ, declares the auth.events queue
// and appends one line per event to logPath. It runs a reconnect loop with
// exponential backoff and only returns when ctx is cancelled.
func StartAuditConsumer(ctx context.Context, url, logPath string, log zerolog.Logger) error {
    backoff := time.Second
    for {
        if err := ctx.Err(); err != nil {
            return err
        }
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Warn().Err(err).Dur("retry_in", backoff).Msg("audit-consumer: failed to dial broker")
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = consumeLoop(ctx, conn, logPath, log)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Warn().Err(err).Msg("audit-consumer: consume loop ended; reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, logPath string, log zerolog.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Warn().Err(err).Msg("audit-consumer: set QoS failed")
    }
    if _, err := declareAuthQueue(ch); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.Consume(AuthEventsQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := handleMessage(d.Body, logPath); err != nil {
                log.Error().Err(err).Msg("audit-consumer: handle message failed")
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func handleMessage(body []byte, logPath string) error {
    var ev AuthEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" {
        return errors.New("event without type")
    }
    if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(formatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

func formatLine(ev AuthEvent) string {
    line := fmt.Sprintf("[%s] %s | email=%s", ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type, ev.Email)
    if ev.UserID != 0 {
        line += fmt.Sprintf(" | user_id=%d", ev.UserID)
    }
    if ev.ExpiresAt != nil {
        line += " | expires_at=" + ev.ExpiresAt.UTC().Format(time.RFC3339)
    }
    return line + "\n"
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
