package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/aura-core/internal/ports"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// CheckResult represents the result of a single probe
type CheckResult struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration_ms"`
	Timestamp time.Time     `json:"timestamp"`
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	Status    Status    `json:"status"`
	Version   string    `json:"version,omitempty"`
	Uptime    string    `json:"uptime,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse is the readiness payload
type ReadyResponse struct {
	Ready     bool                   `json:"ready"`
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

// Checker is a single readiness probe
type Checker func(ctx context.Context) CheckResult

// Publisher is the broker surface the readiness probe exercises.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// probeSubject carries readiness pings so broker failures surface in
// /health/ready instead of on the first real synthesis request.
const probeSubject = "aura.health.probe"

// Engine exposes the orchestrator state the readiness probe reports on.
type Engine interface {
	ActiveSessionCount() int
}

// Service runs liveness and readiness checks for the conversation engine
// and its backing stores.
type Service struct {
	cache     ports.Cache
	db        *gorm.DB
	queue     Publisher
	engine    Engine
	startTime time.Time
	version   string
	checkers  map[string]Checker
	log       *zap.Logger
	mu        sync.RWMutex
}

// Config holds health service wiring
type Config struct {
	Version string
	Cache   ports.Cache
	DB      *gorm.DB
	Queue   Publisher
	Engine  Engine
}

// NewService creates a health service with default probes for whichever
// dependencies are configured.
func NewService(config *Config, log *zap.Logger) *Service {
	s := &Service{
		cache:     config.Cache,
		db:        config.DB,
		queue:     config.Queue,
		engine:    config.Engine,
		startTime: time.Now(),
		version:   config.Version,
		checkers:  make(map[string]Checker),
		log:       log,
	}

	if config.Cache != nil {
		s.RegisterChecker("cache", s.checkCache)
	}
	if config.DB != nil {
		s.RegisterChecker("database", s.checkDatabase)
	}
	if config.Queue != nil {
		s.RegisterChecker("queue", s.checkQueue)
	}
	if config.Engine != nil {
		s.RegisterChecker("engine", s.checkEngine)
	}

	return s
}

// RegisterChecker registers a custom readiness probe
func (s *Service) RegisterChecker(name string, checker Checker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkers[name] = checker
	s.log.Info("Registered health checker", zap.String("name", name))
}

// Health performs a basic liveness check
func (s *Service) Health(ctx context.Context) *HealthResponse {
	return &HealthResponse{
		Status:    StatusHealthy,
		Version:   s.version,
		Uptime:    time.Since(s.startTime).String(),
		Timestamp: time.Now(),
	}
}

// Ready runs every registered probe concurrently and aggregates the result
func (s *Service) Ready(ctx context.Context) *ReadyResponse {
	s.mu.RLock()
	checkers := make(map[string]Checker, len(s.checkers))
	for k, v := range s.checkers {
		checkers[k] = v
	}
	s.mu.RUnlock()

	results := make(map[string]CheckResult)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, checker := range checkers {
		wg.Add(1)
		go func(name string, checker Checker) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			result := checker(checkCtx)

			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, checker)
	}

	wg.Wait()

	overallStatus := StatusHealthy
	allReady := true

	for _, result := range results {
		if result.Status == StatusUnhealthy {
			overallStatus = StatusUnhealthy
			allReady = false
		} else if result.Status == StatusDegraded && overallStatus != StatusUnhealthy {
			overallStatus = StatusDegraded
		}
	}

	return &ReadyResponse{
		Ready:     allReady,
		Status:    overallStatus,
		Timestamp: time.Now(),
		Checks:    results,
	}
}

func (s *Service) checkCache(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Name:      "cache",
		Timestamp: time.Now(),
	}

	err := s.cache.Ping()
	result.Duration = time.Since(start)

	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = fmt.Sprintf("ping failed: %v", err)
		s.log.Warn("Cache health check failed", zap.Error(err))
	} else {
		result.Status = StatusHealthy
		result.Message = "connection ok"
	}

	return result
}

func (s *Service) checkDatabase(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Name:      "database",
		Timestamp: time.Now(),
	}

	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	result.Duration = time.Since(start)

	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = fmt.Sprintf("ping failed: %v", err)
		s.log.Warn("Database health check failed", zap.Error(err))
	} else {
		result.Status = StatusHealthy
		result.Message = "connection ok"
	}

	return result
}

func (s *Service) checkQueue(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Name:      "queue",
		Timestamp: time.Now(),
	}

	err := s.queue.Publish(probeSubject, []byte(`{"ping":true}`))
	result.Duration = time.Since(start)

	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = fmt.Sprintf("publish failed: %v", err)
		s.log.Warn("Queue health check failed", zap.Error(err))
	} else {
		result.Status = StatusHealthy
		result.Message = "publish ok"
	}

	return result
}

// checkEngine never fails readiness; it reports session pressure so it
// shows up next to the dependency probes.
func (s *Service) checkEngine(ctx context.Context) CheckResult {
	start := time.Now()
	return CheckResult{
		Name:      "engine",
		Status:    StatusHealthy,
		Message:   fmt.Sprintf("%d active sessions", s.engine.ActiveSessionCount()),
		Duration:  time.Since(start),
		Timestamp: time.Now(),
	}
}
