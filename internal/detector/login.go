package detector

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sentinelops/triage/internal/config"
	"github.com/sentinelops/triage/internal/domain/alert"
	"github.com/sentinelops/triage/internal/domain/event"
)

// LoginEvaluator inspects authentication events for signs of account
// compromise: failed-login bursts, physically impossible travel, logins
// from unfamiliar geography or at unusual hours, and known-bad clients.
type LoginEvaluator struct{}

func (e *LoginEvaluator) Name() string { return "login" }

func (e *LoginEvaluator) ThreatType() string { return alert.ThreatAccountCompromise }

func (e *LoginEvaluator) Evaluate(entityID string, events []event.Event, cfg *config.EngineConfig, now time.Time) ([]alert.Signal, error) {
	var signals []alert.Signal

	var failures []event.Event
	var successes []event.Event
	for _, ev := range events {
		if ev.Timestamp.IsZero() {
			return nil, fmt.Errorf("event %s for entity %s has no timestamp", ev.Type, entityID)
		}
		switch ev.Type {
		case event.TypeLoginFailed:
			failures = append(failures, ev)
		case event.TypeLoginSuccess:
			successes = append(successes, ev)
		}
	}

	signals = append(signals, e.failedLoginBurst(failures, cfg, now)...)
	if s, ok := e.impossibleTravel(successes, cfg); ok {
		signals = append(signals, s)
	}
	if s, ok := e.anomalousGeography(successes, cfg); ok {
		signals = append(signals, s)
	}
	if s, ok := e.unusualTime(successes, cfg); ok {
		signals = append(signals, s)
	}
	if s, ok := e.badClient(events, cfg); ok {
		signals = append(signals, s)
	}

	return signals, nil
}

func (e *LoginEvaluator) failedLoginBurst(failures []event.Event, cfg *config.EngineConfig, now time.Time) []alert.Signal {
	cutoff := now.Add(-cfg.Detector.FailedLoginWindow)
	count := 0
	sources := map[string]struct{}{}
	for _, ev := range failures {
		if ev.Timestamp.Before(cutoff) {
			continue
		}
		count++
		if ip := ev.StringAttr("source_ip"); ip != "" {
			sources[ip] = struct{}{}
		}
	}
	threshold := cfg.Detector.FailedLoginThreshold
	if count < threshold {
		return nil
	}

	// The burst weight grows with the overshoot past the threshold,
	// capped at twice the configured base
	base := cfg.Weight("failed_login_burst")
	weight := base * float64(count) / float64(threshold)
	if weight > 2*base {
		weight = 2 * base
	}
	signals := []alert.Signal{{
		Name:   "failed_login_burst",
		Weight: weight,
		Evidence: map[string]interface{}{
			"count":      count,
			"window":     cfg.Detector.FailedLoginWindow.String(),
			"source_ips": len(sources),
		},
	}}

	// Every failure coming from one address outside the allowlist is the
	// credential-stuffing shape and raises its own signal
	if len(sources) == 1 {
		for ip := range sources {
			if !allowlisted(ip, cfg.AllowedIPs) {
				signals = append(signals, signal("single_source_burst", cfg, map[string]interface{}{
					"source_ip": ip,
					"count":     count,
				}))
			}
		}
	}
	return signals
}

func allowlisted(ip string, allowed []string) bool {
	for _, a := range allowed {
		if a != "" && ip == a {
			return true
		}
	}
	return false
}

// impossibleTravel flags consecutive successful logins whose geo distance
// implies a travel speed above the configured physical bound
func (e *LoginEvaluator) impossibleTravel(successes []event.Event, cfg *config.EngineConfig) (alert.Signal, bool) {
	for i := 1; i < len(successes); i++ {
		prev, cur := successes[i-1], successes[i]
		if !hasGeo(prev) || !hasGeo(cur) {
			continue
		}
		elapsed := cur.Timestamp.Sub(prev.Timestamp).Hours()
		if elapsed <= 0 {
			continue
		}
		dist := haversineKM(
			prev.FloatAttr("lat"), prev.FloatAttr("lon"),
			cur.FloatAttr("lat"), cur.FloatAttr("lon"),
		)
		speed := dist / elapsed
		if speed > cfg.Detector.MaxTravelSpeedKMH {
			return signal("impossible_travel", cfg, map[string]interface{}{
				"distance_km": math.Round(dist),
				"speed_kmh":   math.Round(speed),
				"from":        prev.StringAttr("country"),
				"to":          cur.StringAttr("country"),
			}), true
		}
	}
	return alert.Signal{}, false
}

// anomalousGeography flags a successful login from a country the entity
// has not been seen in earlier within the window
func (e *LoginEvaluator) anomalousGeography(successes []event.Event, cfg *config.EngineConfig) (alert.Signal, bool) {
	seen := map[string]struct{}{}
	for i, ev := range successes {
		country := ev.StringAttr("country")
		if country == "" {
			continue
		}
		if _, known := seen[country]; !known && i > 0 && len(seen) > 0 {
			return signal("anomalous_geography", cfg, map[string]interface{}{
				"country": country,
			}), true
		}
		seen[country] = struct{}{}
	}
	return alert.Signal{}, false
}

func (e *LoginEvaluator) unusualTime(successes []event.Event, cfg *config.EngineConfig) (alert.Signal, bool) {
	start, end := cfg.Detector.ActiveHourStart, cfg.Detector.ActiveHourEnd
	for _, ev := range successes {
		hour := ev.Timestamp.UTC().Hour()
		if hour < start || hour >= end {
			return signal("unusual_time", cfg, map[string]interface{}{
				"hour":         hour,
				"active_hours": fmt.Sprintf("%02d-%02d", start, end),
			}), true
		}
	}
	return alert.Signal{}, false
}

func (e *LoginEvaluator) badClient(events []event.Event, cfg *config.EngineConfig) (alert.Signal, bool) {
	for _, ev := range events {
		ua := strings.ToLower(ev.StringAttr("user_agent"))
		for _, bad := range cfg.KnownBadUserAgents {
			if bad != "" && strings.Contains(ua, strings.ToLower(bad)) {
				return signal("bot_user_agent", cfg, map[string]interface{}{
					"user_agent": ev.StringAttr("user_agent"),
					"matched":    bad,
				}), true
			}
		}
		ip := ev.StringAttr("source_ip")
		for _, bad := range cfg.KnownBadIPs {
			if bad != "" && ip == bad {
				return signal("bot_user_agent", cfg, map[string]interface{}{
					"source_ip": ip,
					"matched":   bad,
				}), true
			}
		}
	}
	return alert.Signal{}, false
}

func hasGeo(ev event.Event) bool {
	_, latOK := ev.Attributes["lat"]
	_, lonOK := ev.Attributes["lon"]
	return latOK && lonOK
}

const earthRadiusKM = 6371.0

func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
