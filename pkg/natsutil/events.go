package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/devicewatch/pkg/logger"
	"github.com/carverauto/devicewatch/pkg/models"
)

const (
	eventSource = "devicewatch"
	eventType   = "com.carverauto.devicewatch.device.state"
)

// getSeverityForState maps device states to severity strings
func getSeverityForState(state string) string {
	switch state {
	case models.DeviceStateOffline:
		return "error"
	case models.DeviceStateRemoved, models.DeviceStateUnknown:
		return "notice"
	default:
		return "info"
	}
}

// EventPublisher turns status changes into CloudEvents on a JetStream stream.
// Only transitions are published; repeated probes with the same outcome are not.
type EventPublisher struct {
	js      jetstream.JetStream
	stream  string
	subject string
	logger  logger.Logger

	mu     sync.Mutex
	states map[string]string
}

// NewEventPublisher creates a new EventPublisher for the specified stream.
func NewEventPublisher(js jetstream.JetStream, streamName, subject string, log logger.Logger) *EventPublisher {
	return &EventPublisher{
		js:      js,
		stream:  streamName,
		subject: subject,
		logger:  log,
		states:  make(map[string]string),
	}
}

// EnsureStream creates the stream, or widens its subjects so the publisher's subject is captured.
func (p *EventPublisher) EnsureStream(ctx context.Context) error {
	stream, err := p.js.Stream(ctx, p.stream)
	if err != nil {
		if !isStreamMissingErr(err) {
			return fmt.Errorf("failed to look up stream %s: %w", p.stream, err)
		}

		_, err = p.js.CreateStream(ctx, jetstream.StreamConfig{
			Name:     p.stream,
			Subjects: []string{p.subject},
		})
		if err != nil {
			return fmt.Errorf("failed to create stream %s: %w", p.stream, err)
		}

		p.logger.Info().Str("stream", p.stream).Str("subject", p.subject).Msg("Created NATS JetStream stream")

		return nil
	}

	cfg := stream.CachedInfo().Config

	subjects := ensureSubjectList(cfg.Subjects, p.subject)
	if len(subjects) == len(cfg.Subjects) {
		return nil
	}

	cfg.Subjects = subjects

	if _, err := p.js.UpdateStream(ctx, cfg); err != nil {
		return fmt.Errorf("failed to add subject %s to stream %s: %w", p.subject, p.stream, err)
	}

	return nil
}

// PublishDeviceStateEvent publishes one state transition.
func (p *EventPublisher) PublishDeviceStateEvent(ctx context.Context, data models.DeviceStateEventData) error {
	event := models.CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.New().String(),
		Source:          eventSource,
		Type:            eventType,
		DataContentType: "application/json",
		Subject:         p.subject,
		Time:            &data.Timestamp,
		Data:            data,
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal device state event: %w", err)
	}

	ack, err := p.js.Publish(ctx, p.subject, eventBytes)
	if err != nil {
		return fmt.Errorf("failed to publish device state event: %w", err)
	}

	p.logger.Debug().
		Str("event_id", event.ID).
		Str("device_id", data.DeviceID).
		Str("state", data.CurrentState).
		Uint64("seq", ack.Sequence).
		Msg("Published device state event")

	return nil
}

// Observe records ev and publishes an event if the device changed state.
// The first observation of a device is published with previous state "unknown".
func (p *EventPublisher) Observe(ctx context.Context, ev models.StatusEvent) error {
	current := models.StateOf(ev.Status.Reachable)

	p.mu.Lock()

	previous, known := p.states[ev.DeviceID]
	if !known {
		previous = models.DeviceStateUnknown
	}

	if ev.Removed {
		current = models.DeviceStateRemoved
		delete(p.states, ev.DeviceID)
	} else {
		p.states[ev.DeviceID] = current
	}

	p.mu.Unlock()

	if previous == current {
		return nil
	}

	data := models.DeviceStateEventData{
		DeviceID:      ev.DeviceID,
		PreviousState: previous,
		CurrentState:  current,
		Timestamp:     ev.Status.LastCheckedAt,
		Severity:      getSeverityForState(current),
	}

	if !ev.Removed {
		data.LastSeen = ev.Status.LastSeenAt
		data.LatencyMs = ev.Status.LatencyMs
	}

	if data.Timestamp.IsZero() {
		data.Timestamp = time.Now()
	}

	return p.PublishDeviceStateEvent(ctx, data)
}

// Run forwards events until ctx is done or the channel is closed.
// Publish failures are logged and do not stop the loop.
func (p *EventPublisher) Run(ctx context.Context, events <-chan models.StatusEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}

			if err := p.Observe(ctx, ev); err != nil {
				p.logger.Warn().Err(err).Str("device_id", ev.DeviceID).Msg("Failed to publish device state event")
			}
		}
	}
}

// ConnectWithEventPublisher opens a dedicated NATS connection and returns a publisher
// whose stream is already in place. The caller owns the returned connection.
func ConnectWithEventPublisher(
	ctx context.Context, cfg models.EventsConfig, log logger.Logger, extraOpts ...nats.Option,
) (*EventPublisher, *nats.Conn, error) {
	opts, err := SecureOptions(cfg.TLS)
	if err != nil {
		return nil, nil, err
	}

	opts = append(opts,
		nats.Name("devicewatch-events"),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Warn().Err(err).Msg("NATS error")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	opts = append(opts, extraOpts...)

	nc, err := nats.Connect(cfg.NatsURL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	publisher := NewEventPublisher(js, cfg.Stream, cfg.Subject, log)

	if err := publisher.EnsureStream(ctx); err != nil {
		nc.Close()
		return nil, nil, err
	}

	return publisher, nc, nil
}

func isStreamMissingErr(err error) bool {
	return errors.Is(err, jetstream.ErrStreamNotFound) ||
		errors.Is(err, jetstream.ErrNoStreamResponse) ||
		errors.Is(err, nats.ErrStreamNotFound) ||
		errors.Is(err, nats.ErrNoStreamResponse) ||
		errors.Is(err, nats.ErrNoResponders)
}

// ensureSubjectList appends subject unless an existing pattern already matches it.
func ensureSubjectList(subjects []string, subject string) []string {
	for _, pattern := range subjects {
		if matchesSubject(pattern, subject) {
			return subjects
		}
	}

	return append(subjects, subject)
}

func matchesSubject(pattern, subject string) bool {
	patternTokens := strings.Split(pattern, ".")
	subjectTokens := strings.Split(subject, ".")

	for i, token := range patternTokens {
		if token == ">" {
			return len(subjectTokens) > i
		}

		if i >= len(subjectTokens) {
			return false
		}

		if token != "*" && token != subjectTokens[i] {
			return false
		}
	}

	return len(patternTokens) == len(subjectTokens)
}
