package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/taskflow/backend/internal/config"
	"github.com/taskflow/backend/pkg/logger"
)

const (
	TaskTypeNotification = "notification:mention"
)

// NotificationTask carries a mention to be delivered to a user.
type NotificationTask struct {
	ActivityID uint `json:"activity_id"`
	UserID     uint `json:"user_id"`
}

// NotificationQueue defines the interface for mention delivery.
type NotificationQueue interface {
	// Enqueue adds a notification to the queue
	Enqueue(task *NotificationTask) error
	// IsAsync returns true if the queue delivers asynchronously
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

var (
	globalQueue NotificationQueue
	queueOnce   sync.Once
)

// InitNotificationQueue initializes the global notification queue based on
// config, falling back to in-process delivery when Redis is unavailable.
func InitNotificationQueue(cfg *config.Config) NotificationQueue {
	queueOnce.Do(func() {
		if cfg.Redis.Enabled {
			queue, err := NewAsyncQueue(&cfg.Redis)
			if err != nil {
				logger.Infof("[Queue] Redis unavailable, falling back to sync mode: %v", err)
				globalQueue = NewSyncQueue()
			} else {
				logger.Infof("[Queue] Async queue initialized with Redis at %s", cfg.Redis.Addr)
				globalQueue = queue
			}
		} else {
			logger.Infof("[Queue] Sync queue initialized (Redis disabled)")
			globalQueue = NewSyncQueue()
		}
	})
	return globalQueue
}

// GetNotificationQueue returns the global queue instance.
func GetNotificationQueue() NotificationQueue {
	return globalQueue
}

// AsyncQueue implements NotificationQueue using asynq (Redis-based).
type AsyncQueue struct {
	client *asynq.Client
}

func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	// Verify the connection before committing to async mode
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()
	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

func (q *AsyncQueue) Enqueue(task *NotificationTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeNotification, payload)
	info, err := q.client.Enqueue(t,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Infof("[AsyncQueue] Notification enqueued: id=%s, queue=%s", info.ID, info.Queue)
	return nil
}

func (q *AsyncQueue) IsAsync() bool {
	return true
}

func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue implements NotificationQueue with in-process delivery (no Redis).
type SyncQueue struct {
	processor func(context.Context, *NotificationTask) error
}

func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

// SetProcessor sets the function that delivers notifications inline.
func (q *SyncQueue) SetProcessor(processor func(context.Context, *NotificationTask) error) {
	q.processor = processor
}

// Enqueue delivers the notification in a goroutine so the request that
// produced the mention is never blocked.
func (q *SyncQueue) Enqueue(task *NotificationTask) error {
	if q.processor == nil {
		logger.Infof("[SyncQueue] Warning: no processor set, notification will be dropped")
		return nil
	}

	go func() {
		ctx := context.Background()
		if err := q.processor(ctx, task); err != nil {
			logger.Infof("[SyncQueue] Notification delivery failed: %v", err)
		}
	}()

	return nil
}

func (q *SyncQueue) IsAsync() bool {
	return false
}

func (q *SyncQueue) Close() error {
	return nil
}
