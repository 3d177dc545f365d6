package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/collectedworks/backend/models"
	"github.com/collectedworks/backend/repositories"
	"go.uber.org/zap"
)

// Service persists query logs asynchronously so the answer path
// never waits on the database.
type Service struct {
	repo        repositories.QueryLogRepository
	logger      *zap.Logger
	logChan     chan *models.QueryLog
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	started     bool
	mu          sync.Mutex
}

// Config holds configuration for the history Service
type Config struct {
	BufferSize  int // Size of the log buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  1000,
		WorkerCount: 2,
	}
}

// NewService creates a new history Service instance
func NewService(repo repositories.QueryLogRepository, logger *zap.Logger, config Config) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		repo:        repo,
		logger:      logger,
		logChan:     make(chan *models.QueryLog, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the background workers
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("history service already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started history service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop gracefully stops the service
// Waits for all pending logs to be written
func (s *Service) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return fmt.Errorf("history service not started")
	}
	// Mark stopped before closing so a concurrent Submit is rejected
	// instead of sending on the closed channel
	s.started = false
	s.mu.Unlock()

	s.logger.Info("stopping history service", zap.Int("pending_logs", len(s.logChan)))

	// Close the channel so workers drain and exit
	close(s.logChan)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("history service stopped gracefully")
		s.cancel()
		return nil
	case <-time.After(timeout):
		s.cancel()
		return fmt.Errorf("history service stop timeout after %v", timeout)
	}
}

// Submit queues a query log for persistence (non-blocking)
// Returns immediately, the log is written in the background
func (s *Service) Submit(log *models.QueryLog) error {
	// The send stays under the mutex so Stop cannot close the channel
	// between the started check and the send
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return fmt.Errorf("history service not started")
	}

	select {
	case s.logChan <- log:
		return nil
	default:
		// Channel is full, drop the log rather than block the answer path
		s.logger.Warn("query log channel full, dropping log",
			zap.String("id", log.ID.String()))
		return fmt.Errorf("query log buffer full")
	}
}

// List returns recent query logs, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*models.QueryLog, int, error) {
	logs, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list query logs: %w", err)
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count query logs: %w", err)
	}

	return logs, total, nil
}

// worker drains logs from the channel
func (s *Service) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("history worker started", zap.Int("worker_id", id))

	for log := range s.logChan {
		if err := s.persist(log); err != nil {
			s.logger.Error("failed to persist query log",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("id", log.ID.String()))
		}
	}

	s.logger.Debug("history worker stopped", zap.Int("worker_id", id))
}

func (s *Service) persist(log *models.QueryLog) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.repo.Insert(ctx, log); err != nil {
		return fmt.Errorf("failed to insert query log: %w", err)
	}

	return nil
}

// Stats represents history service statistics
type Stats struct {
	BufferSize  int  `json:"buffer_size"`
	PendingLogs int  `json:"pending_logs"`
	WorkerCount int  `json:"worker_count"`
	Started     bool `json:"started"`
}

// GetStats returns statistics about the history service
func (s *Service) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		BufferSize:  s.bufferSize,
		PendingLogs: len(s.logChan),
		WorkerCount: s.workerCount,
		Started:     s.started,
	}
}
