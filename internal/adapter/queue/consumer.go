package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/seu-repo/aura-core/internal/domain"
)

// Dispatcher receives decoded events from the broker.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev domain.TranscriptEvent) (domain.TurnOutcome, error)
	HandleRoomEvent(ctx context.Context, ev domain.RoomEvent)
}

// TranscriptConsumer wires broker subjects to the conversation engine.
// Transcripts arrive on one subject, room lifecycle events on another.
type TranscriptConsumer struct {
	mq   MessageQueue
	disp Dispatcher
	log  *zap.Logger
}

func NewTranscriptConsumer(mq MessageQueue, disp Dispatcher, log *zap.Logger) *TranscriptConsumer {
	return &TranscriptConsumer{mq: mq, disp: disp, log: log}
}

// Start subscribes to both subjects. Handler errors are logged by the
// underlying queue adapter; malformed payloads are dropped here.
func (c *TranscriptConsumer) Start(ctx context.Context, transcriptSubject, roomSubject string) error {
	err := c.mq.Subscribe(transcriptSubject, func(data []byte) error {
		var ev domain.TranscriptEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			c.log.Warn("Dropping malformed transcript payload", zap.Error(err))
			return nil
		}
		_, err := c.disp.Dispatch(ctx, ev)
		return err
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", transcriptSubject, err)
	}

	err = c.mq.Subscribe(roomSubject, func(data []byte) error {
		var ev domain.RoomEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			c.log.Warn("Dropping malformed room event payload", zap.Error(err))
			return nil
		}
		c.disp.HandleRoomEvent(ctx, ev)
		return nil
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", roomSubject, err)
	}

	c.log.Info("Consumer subscribed",
		zap.String("transcripts", transcriptSubject),
		zap.String("rooms", roomSubject),
	)
	return nil
}
