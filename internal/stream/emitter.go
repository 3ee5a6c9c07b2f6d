// Package stream delivers composed answers as paced content frames.
package stream

import (
	"context"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/liliang-cn/askcite/internal/domain"
	"github.com/liliang-cn/askcite/internal/metrics"
	"go.uber.org/zap"
)

// DefaultPace is the delay between content frames
const DefaultPace = 20 * time.Millisecond

// Emitter streams text word by word followed by one done frame
type Emitter struct {
	pace   time.Duration
	logger *zap.Logger
}

// NewEmitter creates an emitter. A pace of zero or less emits without delay.
func NewEmitter(pace time.Duration, logger *zap.Logger) *Emitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Emitter{pace: pace, logger: logger}
}

// Emit starts streaming text and returns the frame channel. The channel is
// closed after the done frame, or as soon as ctx is canceled, in which
// case no done frame is sent.
func (e *Emitter) Emit(ctx context.Context, text string, citations []domain.UnifiedCitation) <-chan domain.StreamChunk {
	ch := make(chan domain.StreamChunk)

	go func() {
		defer close(ch)

		var tick <-chan time.Time
		if e.pace > 0 {
			ticker := time.NewTicker(e.pace)
			defer ticker.Stop()
			tick = ticker.C
		}

		units := SplitWords(text)
		for i, unit := range units {
			if i > 0 && tick != nil {
				select {
				case <-tick:
				case <-ctx.Done():
					e.canceled(i)
					return
				}
			}
			if !e.send(ctx, ch, domain.StreamChunk{Type: domain.ChunkTypeContent, Content: unit}) {
				e.canceled(i)
				return
			}
		}

		done := domain.StreamChunk{
			Type:         domain.ChunkTypeDone,
			FinishReason: domain.FinishReasonStop,
			Citations:    citations,
		}
		if !e.send(ctx, ch, done) {
			e.canceled(len(units))
		}
	}()

	return ch
}

func (e *Emitter) send(ctx context.Context, ch chan<- domain.StreamChunk, chunk domain.StreamChunk) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case ch <- chunk:
		metrics.StreamFrames.WithLabelValues(chunk.Type).Inc()
		return true
	case <-ctx.Done():
		return false
	}
}

func (e *Emitter) canceled(sent int) {
	metrics.StreamFrames.WithLabelValues("canceled").Inc()
	e.logger.Debug("Stream canceled by consumer", zap.Int("frames_sent", sent))
}

// SplitWords splits text into word units that keep their trailing
// whitespace, so concatenating the units gives text back. Leading
// whitespace belongs to the first unit.
func SplitWords(text string) []string {
	var units []string
	start := 0
	inSpace := false
	sawWord := false

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		space := unicode.IsSpace(r)
		if !space && inSpace && sawWord {
			units = append(units, text[start:i])
			start = i
		}
		if !space {
			sawWord = true
		}
		inSpace = space
		i += size
	}
	if start < len(text) {
		units = append(units, text[start:])
	}
	return units
}
