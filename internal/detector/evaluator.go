package detector

import (
	"time"

	"github.com/sentinelops/triage/internal/config"
	"github.com/sentinelops/triage/internal/domain/alert"
	"github.com/sentinelops/triage/internal/domain/event"
	"github.com/sentinelops/triage/internal/pkg/logger"
)

// Evaluator inspects one entity's recent event window and emits zero or
// more weighted signals. Evaluators are stateless aside from the config
// snapshot handed to each call: identical events and config always
// produce identical signals.
type Evaluator interface {
	Name() string
	ThreatType() string
	Evaluate(entityID string, events []event.Event, cfg *config.EngineConfig, now time.Time) ([]alert.Signal, error)
}

// Registry runs every evaluator over an entity window. An evaluator error
// is logged and its output treated as empty for the cycle; one broken
// evaluator never suppresses the others.
type Registry struct {
	evaluators []Evaluator
	logger     *logger.Logger
}

// NewRegistry creates a registry over the default evaluator set
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		evaluators: []Evaluator{
			&LoginEvaluator{},
			&APIUsageEvaluator{},
			&PrivilegeEvaluator{},
		},
		logger: log,
	}
}

// EvaluateAll returns all signals raised for the entity, grouped by the
// emitting evaluator's threat type
func (r *Registry) EvaluateAll(entityID string, events []event.Event, cfg *config.EngineConfig, now time.Time) map[string][]alert.Signal {
	out := make(map[string][]alert.Signal)
	for _, ev := range r.evaluators {
		signals, err := ev.Evaluate(entityID, events, cfg, now)
		if err != nil {
			r.logger.WithFields(map[string]interface{}{
				"evaluator": ev.Name(),
				"entity_id": entityID,
			}).ErrorWithErr(err, "Evaluator failed, treating output as empty")
			continue
		}
		if len(signals) > 0 {
			out[ev.ThreatType()] = append(out[ev.ThreatType()], signals...)
		}
	}
	return out
}

func signal(name string, cfg *config.EngineConfig, evidence map[string]interface{}) alert.Signal {
	return alert.Signal{
		Name:     name,
		Weight:   cfg.Weight(name),
		Evidence: evidence,
	}
}
