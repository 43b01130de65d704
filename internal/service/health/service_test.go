package health

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/seu-repo/aura-core/internal/mocks"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

type stubEngine struct {
	sessions int
}

func (s stubEngine) ActiveSessionCount() int {
	return s.sessions
}

func TestReady_AllProbesHealthy(t *testing.T) {
	// Arrange
	svc := NewService(&Config{
		Version: "test",
		Cache:   mocks.NewMockCache(),
		Queue:   mocks.NewMockMessageQueue(),
		Engine:  stubEngine{sessions: 2},
	}, newTestLogger())

	// Act
	resp := svc.Ready(context.Background())

	// Assert
	if !resp.Ready {
		t.Fatal("Expected ready with all probes healthy")
	}
	if resp.Status != StatusHealthy {
		t.Fatalf("Expected status %s, got %s", StatusHealthy, resp.Status)
	}
	for _, name := range []string{"cache", "queue", "engine"} {
		check, ok := resp.Checks[name]
		if !ok {
			t.Fatalf("Expected a %q check in the readiness payload", name)
		}
		if check.Status != StatusHealthy {
			t.Fatalf("Expected %q check healthy, got %s", name, check.Status)
		}
	}
}

func TestReady_QueuePublishFailureMakesUnready(t *testing.T) {
	// Arrange
	mq := mocks.NewMockMessageQueue()
	mq.PublishFunc = func(subject string, data []byte) error {
		return errors.New("nats: connection closed")
	}
	svc := NewService(&Config{
		Version: "test",
		Cache:   mocks.NewMockCache(),
		Queue:   mq,
		Engine:  stubEngine{},
	}, newTestLogger())

	// Act
	resp := svc.Ready(context.Background())

	// Assert
	if resp.Ready {
		t.Fatal("Expected unready when the broker rejects publishes")
	}
	if resp.Status != StatusUnhealthy {
		t.Fatalf("Expected status %s, got %s", StatusUnhealthy, resp.Status)
	}
	if resp.Checks["queue"].Status != StatusUnhealthy {
		t.Fatalf("Expected queue check unhealthy, got %s", resp.Checks["queue"].Status)
	}
}

func TestReady_QueueProbePublishesToProbeSubject(t *testing.T) {
	// Arrange
	mq := mocks.NewMockMessageQueue()
	svc := NewService(&Config{
		Version: "test",
		Queue:   mq,
	}, newTestLogger())

	// Act
	svc.Ready(context.Background())

	// Assert
	if len(mq.PublishedMessages[probeSubject]) != 1 {
		t.Fatalf("Expected one ping on %s, got %d", probeSubject, len(mq.PublishedMessages[probeSubject]))
	}
}

func TestReady_CachePingFailureMakesUnready(t *testing.T) {
	// Arrange
	mc := mocks.NewMockCache()
	mc.PingFunc = func() error {
		return errors.New("redis: connection refused")
	}
	svc := NewService(&Config{
		Version: "test",
		Cache:   mc,
		Queue:   mocks.NewMockMessageQueue(),
		Engine:  stubEngine{},
	}, newTestLogger())

	// Act
	resp := svc.Ready(context.Background())

	// Assert
	if resp.Ready {
		t.Fatal("Expected unready when the cache ping fails")
	}
	if resp.Checks["cache"].Status != StatusUnhealthy {
		t.Fatalf("Expected cache check unhealthy, got %s", resp.Checks["cache"].Status)
	}
}

func TestHealth_ReportsVersionAndUptime(t *testing.T) {
	// Arrange
	svc := NewService(&Config{Version: "v1.2.3"}, newTestLogger())

	// Act
	resp := svc.Health(context.Background())

	// Assert
	if resp.Status != StatusHealthy {
		t.Fatalf("Expected status %s, got %s", StatusHealthy, resp.Status)
	}
	if resp.Version != "v1.2.3" {
		t.Fatalf("Expected version v1.2.3, got %s", resp.Version)
	}
	if resp.Uptime == "" {
		t.Fatal("Expected a non-empty uptime")
	}
}
