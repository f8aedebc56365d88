package activitymap

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-provider-api/auth"
)

const (
	defaultChannel    = "auth"
	defaultObjectType = "user"
	defaultActorID    = "anonymous"
)

// Normalized is a transport agnostic activity record
type Normalized struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Identifier string         `json:"identifier,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type Option func(*options)

type options struct {
	channel       string
	objectType    string
	actorFallback string
}

func WithChannel(channel string) Option {
	return func(o *options) {
		o.channel = strings.TrimSpace(channel)
	}
}

func WithActorFallback(actorID string) Option {
	return func(o *options) {
		o.actorFallback = strings.TrimSpace(actorID)
	}
}

// Normalize converts an auth.ActivityEvent. Failed logins carry no user
// id so the actor falls back to the configured value.
func Normalize(event auth.ActivityEvent, opts ...Option) Normalized {
	o := options{
		channel:       defaultChannel,
		objectType:    defaultObjectType,
		actorFallback: defaultActorID,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	userID := strings.TrimSpace(event.UserID)
	actorID := userID
	if actorID == "" {
		actorID = o.actorFallback
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	return Normalized{
		ActorID:    actorID,
		Verb:       string(event.EventType),
		ObjectType: o.objectType,
		ObjectID:   userID,
		Channel:    o.channel,
		Identifier: strings.ToLower(strings.TrimSpace(event.Identifier)),
		Metadata:   cloneMap(event.Metadata),
		OccurredAt: occurredAt,
	}
}

func cloneMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// LogSink writes normalized activity to a logger
type LogSink struct {
	logger auth.Logger
	opts   []Option
}

func NewLogSink(logger auth.Logger, opts ...Option) *LogSink {
	return &LogSink{logger: logger, opts: opts}
}

func (s *LogSink) Record(_ context.Context, event auth.ActivityEvent) error {
	n := Normalize(event, s.opts...)

	args := []any{
		"verb", n.Verb,
		"actor_id", n.ActorID,
		"channel", n.Channel,
		"occurred_at", n.OccurredAt.Format(time.RFC3339),
	}
	if n.Identifier != "" {
		args = append(args, "identifier", n.Identifier)
	}
	if len(n.Metadata) > 0 {
		args = append(args, "metadata", n.Metadata)
	}

	if strings.HasSuffix(n.Verb, ".success") {
		s.logger.Info("auth activity", args...)
	} else {
		s.logger.Warn("auth activity", args...)
	}
	return nil
}

// Fanout records each event on every sink and returns the first error
func Fanout(sinks ...auth.ActivitySink) auth.ActivitySink {
	return auth.ActivitySinkFunc(func(ctx context.Context, event auth.ActivityEvent) error {
		var first error
		for _, sink := range sinks {
			if sink == nil {
				continue
			}
			if err := sink.Record(ctx, event); err != nil && first == nil {
				first = err
			}
		}
		return first
	})
}
