// Package eventhandler содержит обработчики доменных событий.
package eventhandler

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/learnhub/learning-progress-hub/internal/domain/learner"
	"github.com/learnhub/learning-progress-hub/internal/domain/mistake"
	"github.com/learnhub/learning-progress-hub/internal/domain/shared"
	"github.com/learnhub/learning-progress-hub/internal/domain/syllabus"
	"github.com/learnhub/learning-progress-hub/internal/infrastructure/syncer"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON PROGRESS CHANGED HANDLER
// Единый наблюдатель за всеми доменными событиями прогресса.
//
// Ключевые функции:
// 1. Детекция изменений — сериализованный снапшот сравнивается с последним
//    отправленным; эхо-записи (событие без фактического изменения данных)
//    подавляются
// 2. Локальная фиксация — изменённые партиции пишутся в долговечное
//    хранилище сразу, не дожидаясь сети
// 3. Планирование синхронизации — изменение передаётся координатору,
//    который схлопывает всплески мутаций в одну отложенную запись
//
// Гостевое состояние (пустая идентичность) не фиксируется и не
// синхронизируется вовсе.
// ═══════════════════════════════════════════════════════════════════════════

// LocalStore — контракт долговечного локального хранилища партиций.
type LocalStore interface {
	SaveSnapshot(ctx context.Context, userID shared.UserID, snap learner.Snapshot) error
	SaveWrongQuestions(ctx context.Context, userID shared.UserID, records []mistake.Record) error
	SaveSyllabusProgress(ctx context.Context, userID shared.UserID, records []syllabus.ProgressRecord) error
}

// SyncScheduler — контракт координатора отложенной синхронизации.
type SyncScheduler interface {
	DebouncedSave(payload syncer.Payload)
}

// ProgressChangedConfig содержит конфигурацию обработчика.
type ProgressChangedConfig struct {
	// PersistTimeout ограничивает запись в локальное хранилище.
	PersistTimeout time.Duration
}

// DefaultProgressChangedConfig возвращает конфигурацию по умолчанию.
func DefaultProgressChangedConfig() ProgressChangedConfig {
	return ProgressChangedConfig{
		PersistTimeout: 5 * time.Second,
	}
}

// OnProgressChangedHandler фиксирует изменения локально и планирует
// отправку на сервер.
type OnProgressChangedHandler struct {
	progress  *learner.Ledger
	mistakes  *mistake.Ledger
	syllabi   *syllabus.Tracker
	store     LocalStore
	scheduler SyncScheduler

	logger *slog.Logger
	config ProgressChangedConfig

	mu             sync.Mutex
	lastSerialized []byte
}

// NewOnProgressChangedHandler создаёт обработчик изменений прогресса.
func NewOnProgressChangedHandler(
	progress *learner.Ledger,
	mistakes *mistake.Ledger,
	syllabi *syllabus.Tracker,
	store LocalStore,
	scheduler SyncScheduler,
	logger *slog.Logger,
	config ProgressChangedConfig,
) *OnProgressChangedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if config.PersistTimeout <= 0 {
		config.PersistTimeout = DefaultProgressChangedConfig().PersistTimeout
	}
	return &OnProgressChangedHandler{
		progress:  progress,
		mistakes:  mistakes,
		syllabi:   syllabi,
		store:     store,
		scheduler: scheduler,
		logger:    logger,
		config:    config,
	}
}

// Handle обрабатывает одно доменное событие. Подписывается через
// SubscribeAll: наблюдателю не важен тип события, важен факт изменения.
func (h *OnProgressChangedHandler) Handle(event shared.Event) error {
	switch event.EventType() {
	case shared.EventSyncCompleted:
		// Событие самой синхронизации; реагировать — значит зациклиться.
		return nil
	}

	userID := h.progress.Identity()
	if userID == "" {
		return nil
	}

	payload := syncer.NewPayload(h.progress.Snapshot(), h.mistakes.Records())
	data, err := payload.Marshal()
	if err != nil {
		return err
	}

	h.mu.Lock()
	if bytes.Equal(data, h.lastSerialized) {
		h.mu.Unlock()
		return nil
	}
	h.lastSerialized = data
	h.mu.Unlock()

	h.persistLocal(userID)

	switch event.EventType() {
	case shared.EventProgressLoaded, shared.EventProgressReset:
		// Состояние пришло с сервера или обнулено при выходе: локальная
		// копия обновлена, отправлять его обратно не нужно.
		return nil
	}

	h.scheduler.DebouncedSave(payload)
	return nil
}

// persistLocal пишет изменённые партиции в долговечное хранилище.
// Ошибки записи не блокируют синхронизацию: локальная копия — кэш,
// источник истины — сервер.
func (h *OnProgressChangedHandler) persistLocal(userID shared.UserID) {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.PersistTimeout)
	defer cancel()

	if err := h.store.SaveSnapshot(ctx, userID, h.progress.Snapshot()); err != nil {
		h.logger.Warn("failed to persist snapshot", "error", err)
	}
	if err := h.store.SaveWrongQuestions(ctx, userID, h.mistakes.Records()); err != nil {
		h.logger.Warn("failed to persist wrong questions", "error", err)
	}
	if err := h.store.SaveSyllabusProgress(ctx, userID, h.syllabi.Records()); err != nil {
		h.logger.Warn("failed to persist syllabus progress", "error", err)
	}
}
