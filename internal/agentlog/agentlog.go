// Package agentlog is the append-only activity record of the orchestrator.
//
// Entries are immutable once appended and totally ordered by insertion.
// The presentation layer reads the in-memory sequence; when Redis is
// configured each entry is additionally published for live dashboards,
// best-effort and non-fatal.
package agentlog

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Channel is the Redis pub/sub channel entries are mirrored to.
const Channel = "EVENT_AGENT_LOG"

const publishTimeout = 2 * time.Second

// Agent identifies the subsystem that produced an entry.
type Agent string

const (
	AgentOrchestrator Agent = "ORCHESTRATOR"
	AgentDiscovery    Agent = "DISCOVERY"
	AgentExtraction   Agent = "EXTRACTION"
	AgentMatching     Agent = "MATCHING"
	AgentSubmission   Agent = "SUBMISSION"
	AgentScheduler    Agent = "SCHEDULER"
)

// Level is the severity of an entry.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelSuccess Level = "success"
)

// Entry is one activity record.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Agent     Agent     `json:"agent"`
	Message   string    `json:"message"`
	Level     Level     `json:"level"`
}

// Log is the append-only entry sequence. Appends may run concurrently with
// reads; readers always observe a consistent prefix.
type Log struct {
	mu      sync.RWMutex
	entries []Entry

	logger *zap.SugaredLogger
	rdb    *redis.Client // nil disables publishing
	now    func() time.Time
}

// New returns an empty Log. rdb may be nil.
func New(logger *zap.SugaredLogger, rdb *redis.Client) *Log {
	return &Log{logger: logger, rdb: rdb, now: time.Now}
}

// Append records an entry and mirrors it to the process logger and, when
// configured, to Redis.
func (l *Log) Append(agent Agent, level Level, message string) Entry {
	e := Entry{
		ID:        uuid.NewString(),
		Timestamp: l.now().UTC(),
		Agent:     agent,
		Message:   message,
		Level:     level,
	}

	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()

	switch level {
	case LevelError:
		l.logger.Errorw(message, "agent", agent)
	case LevelWarning:
		l.logger.Warnw(message, "agent", agent)
	default:
		l.logger.Infow(message, "agent", agent, "level", level)
	}

	l.publish(e)
	return e
}

// Entries returns a copy of the full sequence in insertion order.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len reports the number of entries appended so far.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

func (l *Log) publish(e Entry) {
	if l.rdb == nil {
		return
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := l.rdb.Publish(ctx, Channel, payload).Err(); err != nil {
		l.logger.Warnw("publish agent log entry failed", "err", err)
	}
}
