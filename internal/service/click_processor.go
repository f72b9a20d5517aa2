package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SergeiKhy/linkflow/internal/metrics"
	"github.com/SergeiKhy/linkflow/internal/models"
	"github.com/SergeiKhy/linkflow/internal/repository"
	"go.uber.org/zap"
)

// Константы worker pool
const (
	defaultChannelBuffer = 1000 // Размер буфера канала
	maxRetries           = 3    // Максимальное количество попыток записи в пуле
	recordTimeout        = 5 * time.Second
)

// ClickProcessor записывает клики. Без воркеров запись синхронная,
// с воркерами события уходят в буферизованный канал.
type ClickProcessor interface {
	Start()
	Stop()
	RecordClick(ctx context.Context, event *models.ClickEvent) error
	ChannelStats() ChannelStats
}

// ClickProcessorConfig настройки процессора; Workers == 0 включает синхронный режим
type ClickProcessorConfig struct {
	Workers int
	Buffer  int
}

// clickProcessor реализация процессора кликов с использованием Worker Pool
type clickProcessor struct {
	clickRepo    repository.ClickRepository
	metrics      *metrics.Metrics
	logger       *zap.Logger
	clickChannel chan *models.ClickEvent // Канал для событий кликов
	workerCount  int
	retryDelay   time.Duration
	wg           sync.WaitGroup
	quit         chan struct{}
	stopped      atomic.Bool
	stopOnce     sync.Once
}

// NewClickProcessor создаёт новый экземпляр процессора кликов
func NewClickProcessor(
	clickRepo repository.ClickRepository,
	cfg ClickProcessorConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) ClickProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &clickProcessor{
		clickRepo:   clickRepo,
		metrics:     m,
		logger:      logger,
		workerCount: cfg.Workers,
		retryDelay:  100 * time.Millisecond,
		quit:        make(chan struct{}),
	}

	if cfg.Workers > 0 {
		buffer := cfg.Buffer
		if buffer <= 0 {
			buffer = defaultChannelBuffer
		}
		p.clickChannel = make(chan *models.ClickEvent, buffer)
	}

	return p
}

// Start запускает worker pool
func (p *clickProcessor) Start() {
	if p.workerCount == 0 {
		p.logger.Info("Click processor running inline")
		return
	}

	p.logger.Info("Starting click workers", zap.Int("count", p.workerCount))

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop останавливает воркеров, предварительно дописав очередь
func (p *clickProcessor) Stop() {
	p.stopOnce.Do(func() {
		p.stopped.Store(true)
		close(p.quit)
		p.wg.Wait()
		p.logger.Info("Click processor stopped")
	})
}

// worker обрабатывает события кликов из канала
func (p *clickProcessor) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("Click worker started", zap.Int("id", id))

	for {
		select {
		case event := <-p.clickChannel:
			p.processClick(event)

		case <-p.quit:
			p.drain()
			p.logger.Debug("Click worker stopped", zap.Int("id", id))
			return
		}
	}
}

// drain дописывает события, оставшиеся в канале на момент остановки
func (p *clickProcessor) drain() {
	for {
		select {
		case event := <-p.clickChannel:
			p.processClick(event)
		default:
			return
		}
	}
}

// processClick пишет одно событие с повторными попытками
func (p *clickProcessor) processClick(event *models.ClickEvent) {
	var err error
	for i := 0; i < maxRetries; i++ {
		if err = p.write(context.Background(), event); err == nil {
			return
		}
		if i < maxRetries-1 {
			p.logger.Debug("Retrying click write",
				zap.Int64("link_id", event.LinkID),
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(time.Duration(i+1) * p.retryDelay)
		}
	}

	p.logger.Error("Failed to record click after retries",
		zap.Int64("link_id", event.LinkID),
		zap.Error(err),
	)
}

func (p *clickProcessor) write(ctx context.Context, event *models.ClickEvent) error {
	ctx, cancel := context.WithTimeout(ctx, recordTimeout)
	defer cancel()

	if err := p.clickRepo.RecordClick(ctx, event); err != nil {
		p.metrics.ClickFailed()
		return err
	}
	p.metrics.ClickRecorded()
	return nil
}

// RecordClick записывает клик сразу (без воркеров) или ставит его в очередь.
// Переполненный буфер не блокирует запрос: событие теряется.
func (p *clickProcessor) RecordClick(ctx context.Context, event *models.ClickEvent) error {
	if p.stopped.Load() {
		return ErrProcessorClosed
	}

	if p.workerCount == 0 {
		// запись не должна обрываться вместе с запросом клиента
		return p.write(context.WithoutCancel(ctx), event)
	}

	select {
	case p.clickChannel <- event:
		return nil
	default:
		p.metrics.ClickDropped()
		p.logger.Warn("Click buffer is full, event dropped",
			zap.Int64("link_id", event.LinkID),
		)
		return nil
	}
}

// ChannelStats возвращает состояние буфера для мониторинга
func (p *clickProcessor) ChannelStats() ChannelStats {
	return ChannelStats{
		BufferSize:  cap(p.clickChannel),
		BufferUsed:  len(p.clickChannel),
		WorkerCount: p.workerCount,
	}
}

// ChannelStats статистика канала worker pool
type ChannelStats struct {
	BufferSize  int `json:"buffer_size"`
	BufferUsed  int `json:"buffer_used"`
	WorkerCount int `json:"worker_count"`
}
