package recovery

import (
	"errors"
	"fmt"

	"github.com/wudi/rtfsig/observability"
)

// LenientStrategy implements a best-effort recovery strategy.
// Every anomaly is recorded and logged at debug level; parsing always continues.
type LenientStrategy struct {
	Errors []error
	log    observability.Logger
}

func NewLenientStrategy(log observability.Logger) *LenientStrategy {
	if log == nil {
		log = observability.NopLogger{}
	}
	return &LenientStrategy{log: log}
}

func (s *LenientStrategy) OnError(err error, location Location) {
	s.Errors = append(s.Errors, fmt.Errorf("[%s] offset %d: %w", location.Component, location.ByteOffset, err))
	s.log.Debug("structural anomaly",
		observability.String("component", location.Component),
		observability.Int64("offset", location.ByteOffset),
		observability.Int("depth", location.Depth),
		observability.Error("error", err),
	)
}

// Count returns how many recorded anomalies match target.
func (s *LenientStrategy) Count(target error) int {
	n := 0
	for _, err := range s.Errors {
		if errors.Is(err, target) {
			n++
		}
	}
	return n
}
