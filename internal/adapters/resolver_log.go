package adapters

import (
	"sync"

	"github.com/rs/zerolog"

	"resmerge/internal/ports"
)

// ZerologResolverLog writes resolver diagnostics to a zerolog logger with
// a "tag" field and counts them per tag.
type ZerologResolverLog struct {
	logger zerolog.Logger

	mu     sync.Mutex
	counts map[string]int
}

func NewZerologResolverLog(logger zerolog.Logger) *ZerologResolverLog {
	return &ZerologResolverLog{logger: logger, counts: map[string]int{}}
}

func (l *ZerologResolverLog) Warning(tag string, message string) {
	l.count(tag)
	l.logger.Warn().Str("tag", tag).Msg(message)
}

func (l *ZerologResolverLog) Error(tag string, message string) {
	l.count(tag)
	l.logger.Error().Str("tag", tag).Msg(message)
}

func (l *ZerologResolverLog) count(tag string) {
	l.mu.Lock()
	l.counts[tag]++
	l.mu.Unlock()
}

// Counts returns a copy of the per-tag diagnostic counts.
func (l *ZerologResolverLog) Counts() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int, len(l.counts))
	for tag, n := range l.counts {
		out[tag] = n
	}
	return out
}

var _ ports.ResolverLogPort = (*ZerologResolverLog)(nil)
