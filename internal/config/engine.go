package config

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/sentinelops/triage/internal/pkg/logger"
)

// EngineConfig is the hot-reloadable engine policy document. A loaded
// EngineConfig is immutable; reload builds a fresh one and swaps the
// snapshot pointer, so no evaluation ever observes a half-updated config.
type EngineConfig struct {
	ReportingFloor float64            `mapstructure:"reporting_floor" validate:"gte=0,lte=100"`
	Confidence     ConfidenceConfig   `mapstructure:"confidence"`
	AutoExecute    map[string]float64 `mapstructure:"auto_execute_thresholds" validate:"dive,gte=0,lte=100"`
	SignalWeights  map[string]float64 `mapstructure:"signal_weights" validate:"dive,gte=0,lte=100"`
	Detector       DetectorConfig     `mapstructure:"detector"`
	RateLimit      ActionRateConfig   `mapstructure:"rate_limit"`
	Breaker        BreakerConfig      `mapstructure:"breaker"`
	Executor       ExecutorConfig     `mapstructure:"executor"`

	ProtectedEntities  []string `mapstructure:"protected_entities"`
	KnownBadUserAgents []string `mapstructure:"known_bad_user_agents"`
	KnownBadIPs        []string `mapstructure:"known_bad_ips"`
	AllowedIPs         []string `mapstructure:"allowed_ips"`

	protected map[string]struct{}
}

// ConfidenceConfig holds the gate's confidence water marks
type ConfidenceConfig struct {
	HighWater float64 `mapstructure:"high_water" validate:"gte=0,lte=100"`
	LowWater  float64 `mapstructure:"low_water" validate:"gte=0,lte=100"`
	// ExternalRiskCaution is the external risk score at or above which an
	// Execute decision is downgraded to Escalate
	ExternalRiskCaution float64 `mapstructure:"external_risk_caution" validate:"gte=0,lte=100"`
}

// DetectorConfig holds evaluator thresholds
type DetectorConfig struct {
	FailedLoginThreshold int           `mapstructure:"failed_login_threshold" validate:"gt=0"`
	FailedLoginWindow    time.Duration `mapstructure:"failed_login_window" validate:"gt=0"`
	MaxTravelSpeedKMH    float64       `mapstructure:"max_travel_speed_kmh" validate:"gt=0"`
	ActiveHourStart      int           `mapstructure:"active_hour_start" validate:"gte=0,lte=23"`
	ActiveHourEnd        int           `mapstructure:"active_hour_end" validate:"gte=0,lte=23"`
	APIRequestsPerMinute int           `mapstructure:"api_requests_per_minute" validate:"gt=0"`
	EnumerationRunLength int           `mapstructure:"enumeration_run_length" validate:"gt=1"`
	EventWindow          time.Duration `mapstructure:"event_window" validate:"gt=0"`
	MaxTrackedEntities   int           `mapstructure:"max_tracked_entities" validate:"gt=0"`
}

// ActionRateConfig caps executed actions per entity and action kind over
// fixed trailing windows
type ActionRateConfig struct {
	PerHour   int `mapstructure:"per_hour" validate:"gt=0"`
	PerMinute int `mapstructure:"per_minute" validate:"gt=0"`
}

// BreakerConfig holds circuit breaker trip policy
type BreakerConfig struct {
	FalsePositiveRatio float64       `mapstructure:"false_positive_ratio" validate:"gt=0,lte=1"`
	ErrorRatio         float64       `mapstructure:"error_ratio" validate:"gt=0,lte=1"`
	Window             time.Duration `mapstructure:"window" validate:"gt=0"`
	MinResolved        int           `mapstructure:"min_resolved" validate:"gt=0"`
	MinAttempts        int           `mapstructure:"min_attempts" validate:"gt=0"`
}

// ExecutorConfig holds retry, timeout and reversal policy
type ExecutorConfig struct {
	MaxAttempts        int           `mapstructure:"max_attempts" validate:"gt=0"`
	BackoffBase        time.Duration `mapstructure:"backoff_base" validate:"gt=0"`
	EnforcementTimeout time.Duration `mapstructure:"enforcement_timeout" validate:"gt=0"`
	BlockIPTTL         time.Duration `mapstructure:"block_ip_ttl" validate:"gt=0"`
	RestoreRetention   time.Duration `mapstructure:"restore_retention" validate:"gt=0"`
}

// DefaultEngineConfig returns the built-in policy used when the config
// document omits a section
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		// Below the lone failed-login-burst weight, so a bare burst still
		// produces an alert rather than vanishing
		ReportingFloor: 25,
		Confidence:     ConfidenceConfig{HighWater: 90, LowWater: 70, ExternalRiskCaution: 70},
		AutoExecute: map[string]float64{
			"log_only":                0,
			"rate_limit":              70,
			"require_mfa":             75,
			"revoke_session":          85,
			"block_ip":                90,
			"revoke_api_key":          90,
			"lock_account":            95,
			"disable_service_account": 95,
		},
		SignalWeights: map[string]float64{
			"failed_login_burst":           30,
			"single_source_burst":          45,
			"anomalous_geography":          25,
			"unusual_time":                 15,
			"impossible_travel":            35,
			"bot_user_agent":               20,
			"rate_limit_violation":         25,
			"unusual_endpoint":             20,
			"sequential_enumeration":       30,
			"sql_injection_attempt":        40,
			"privilege_escalation_attempt": 35,
			"unauthorized_role_change":     40,
			"direct_permission_modification": 35,
			"service_account_misuse":       45,
			"unauthorized_admin_execution": 40,
			"iam_privilege_expansion":      35,
		},
		Detector: DetectorConfig{
			FailedLoginThreshold: 5,
			FailedLoginWindow:    10 * time.Minute,
			MaxTravelSpeedKMH:    1000,
			ActiveHourStart:      7,
			ActiveHourEnd:        22,
			APIRequestsPerMinute: 120,
			EnumerationRunLength: 10,
			EventWindow:          30 * time.Minute,
			MaxTrackedEntities:   10000,
		},
		RateLimit: ActionRateConfig{PerHour: 100, PerMinute: 10},
		Breaker: BreakerConfig{
			FalsePositiveRatio: 0.20,
			ErrorRatio:         0.30,
			Window:             time.Hour,
			MinResolved:        5,
			MinAttempts:        5,
		},
		Executor: ExecutorConfig{
			MaxAttempts:        3,
			BackoffBase:        200 * time.Millisecond,
			EnforcementTimeout: 10 * time.Second,
			BlockIPTTL:         time.Hour,
			RestoreRetention:   7 * 24 * time.Hour,
		},
	}
}

// Weight returns the configured weight for a signal name, falling back to
// the built-in default for names the document does not override
func (c *EngineConfig) Weight(name string) float64 {
	if w, ok := c.SignalWeights[name]; ok {
		return w
	}
	return 0
}

// AutoExecuteThreshold returns the per-kind auto-execute confidence
// threshold, falling back to the global high-water mark
func (c *EngineConfig) AutoExecuteThreshold(kind string) float64 {
	if t, ok := c.AutoExecute[kind]; ok {
		return t
	}
	return c.Confidence.HighWater
}

// IsProtected reports whether an entity is on the protected allowlist.
// Configs built programmatically may not have the lookup map yet; those
// fall back to scanning the slice.
func (c *EngineConfig) IsProtected(entityID string) bool {
	if c.protected != nil {
		_, ok := c.protected[entityID]
		return ok
	}
	for _, e := range c.ProtectedEntities {
		if strings.TrimSpace(e) == entityID {
			return true
		}
	}
	return false
}

func (c *EngineConfig) finalize() error {
	if c.Confidence.LowWater > c.Confidence.HighWater {
		return fmt.Errorf("confidence low_water %.0f above high_water %.0f",
			c.Confidence.LowWater, c.Confidence.HighWater)
	}

	// Absent weight/threshold entries fall back to defaults instead of zero
	def := DefaultEngineConfig()
	if c.SignalWeights == nil {
		c.SignalWeights = map[string]float64{}
	}
	for name, w := range def.SignalWeights {
		if _, ok := c.SignalWeights[name]; !ok {
			c.SignalWeights[name] = w
		}
	}
	if c.AutoExecute == nil {
		c.AutoExecute = map[string]float64{}
	}
	for kind, t := range def.AutoExecute {
		if _, ok := c.AutoExecute[kind]; !ok {
			c.AutoExecute[kind] = t
		}
	}

	c.protected = make(map[string]struct{}, len(c.ProtectedEntities))
	for _, e := range c.ProtectedEntities {
		c.protected[strings.TrimSpace(e)] = struct{}{}
	}
	return nil
}

// EngineStore owns the current engine config snapshot and swaps it
// atomically when the backing file changes
type EngineStore struct {
	current  atomic.Pointer[EngineConfig]
	v        *viper.Viper
	validate *validator.Validate
	logger   *logger.Logger
	onReload []func(*EngineConfig)
}

// LoadEngine reads, validates and starts watching the engine config file.
// An invalid document at startup is fatal; an invalid document on reload
// keeps the previous snapshot.
func LoadEngine(path string, log *logger.Logger) (*EngineStore, error) {
	v := viper.New()
	v.SetConfigFile(path)

	s := &EngineStore{
		v:        v,
		validate: validator.New(),
		logger:   log,
	}

	cfg, err := s.read()
	if err != nil {
		return nil, fmt.Errorf("engine config %s: %w", path, err)
	}
	s.current.Store(cfg)

	return s, nil
}

// Watch starts the file watcher. Separate from LoadEngine so tests can
// load without watching.
func (s *EngineStore) Watch() {
	s.v.OnConfigChange(func(in fsnotify.Event) {
		cfg, err := s.read()
		if err != nil {
			s.logger.ErrorWithErr(err, "Engine config reload failed, keeping previous snapshot")
			return
		}
		s.current.Store(cfg)
		s.logger.WithFields(map[string]interface{}{
			"file": in.Name,
		}).Info("Engine config reloaded")
		for _, fn := range s.onReload {
			fn(cfg)
		}
	})
	s.v.WatchConfig()
}

// OnReload registers a callback invoked after each successful snapshot swap
func (s *EngineStore) OnReload(fn func(*EngineConfig)) {
	s.onReload = append(s.onReload, fn)
}

// Snapshot returns the current immutable engine config. Callers hold the
// returned pointer for the duration of one evaluation and must not mutate it.
func (s *EngineStore) Snapshot() *EngineConfig {
	return s.current.Load()
}

func (s *EngineStore) read() (*EngineConfig, error) {
	if err := s.v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := DefaultEngineConfig()
	if err := s.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if err := s.validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}
