package stt

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/seu-repo/aura-core/internal/domain"
)

var errNotConnected = errors.New("stt: feed not connected")

// Dispatcher consumes transcript events pulled from the speech service.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev domain.TranscriptEvent) (domain.TurnOutcome, error)
}

// FeedClient maintains a websocket subscription to the upstream
// speech-to-text service and forwards final transcripts to the engine.
type FeedClient struct {
	url     string
	token   string
	disp    Dispatcher
	logger  *zap.Logger
	conn    *websocket.Conn
	backoff time.Duration
}

func NewFeedClient(url, token string, disp Dispatcher, logger *zap.Logger) *FeedClient {
	return &FeedClient{
		url:     url,
		token:   token,
		disp:    disp,
		logger:  logger,
		backoff: 5 * time.Second,
	}
}

// Connect dials the speech service and sends the subscription frame.
func (c *FeedClient) Connect(ctx context.Context) error {
	headers := http.Header{}
	if c.token != "" {
		headers.Set("Authorization", "Bearer "+c.token)
	}

	conn, _, err := websocket.Dial(ctx, c.url, &websocket.DialOptions{
		HTTPHeader: headers,
	})
	if err != nil {
		return err
	}
	c.conn = conn

	sub := map[string]interface{}{
		"subscribe": map[string]interface{}{
			"stream":       "transcripts",
			"final_only":   true,
			"include_meta": true,
		},
	}
	if err := c.send(ctx, sub); err != nil {
		conn.Close(websocket.StatusInternalError, "subscribe failed")
		c.conn = nil
		return err
	}
	return nil
}

// Run reads transcript frames until the context ends or the connection
// drops, reconnecting with a fixed backoff. A client whose initial dial
// failed starts in the backoff branch rather than the read loop.
// Blocks; run in a goroutine.
func (c *FeedClient) Run(ctx context.Context) {
	for {
		if c.conn != nil {
			if err := c.readLoop(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				c.logger.Warn("Speech feed disconnected, reconnecting", zap.Error(err))
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.backoff):
		}

		if err := c.Connect(ctx); err != nil {
			c.conn = nil
			c.logger.Error("Failed to reconnect to speech feed", zap.Error(err))
		}
	}
}

func (c *FeedClient) readLoop(ctx context.Context) error {
	conn := c.conn
	if conn == nil {
		return errNotConnected
	}

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		var ev domain.TranscriptEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			c.logger.Warn("Dropping malformed transcript frame", zap.Error(err))
			continue
		}
		if ev.Text == "" {
			continue
		}

		if _, err := c.disp.Dispatch(ctx, ev); err != nil {
			c.logger.Error("Failed to dispatch transcript",
				zap.String("session_id", ev.SessionID),
				zap.Error(err),
			)
		}
	}
}

func (c *FeedClient) send(ctx context.Context, msg interface{}) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if c.conn == nil {
		return errNotConnected
	}
	return c.conn.Write(ctx, websocket.MessageText, data)
}

func (c *FeedClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close(websocket.StatusNormalClosure, "shutdown")
}
