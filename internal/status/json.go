package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Channel       ChannelStatus `json:"channel"`
	Actuator      *ActuatorJSON `json:"actuator,omitempty"`
	Windows       WindowsJSON   `json:"windows"`
	Commands      uint64        `json:"commands"`
	SensorErrors  uint64        `json:"sensor_errors"`
	WatchdogFeeds uint64        `json:"watchdog_feeds"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	Config        ConfigJSON    `json:"config"`
}

// ChannelStatus reports the telemetry channel state.
type ChannelStatus struct {
	Connected bool   `json:"connected"`
	Transport string `json:"transport"`
	Endpoint  string `json:"endpoint"`
}

// ActuatorJSON is present only for the control variant.
type ActuatorJSON struct {
	Permitted bool `json:"permitted"`
	Active    bool `json:"active"`
}

// WindowsJSON summarises completed averaging windows.
type WindowsJSON struct {
	LastAverage *uint32 `json:"last_average"`
	LastAt      string  `json:"last_at,omitempty"`
	Sent        uint64  `json:"sent"`
	Dropped     uint64  `json:"dropped"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	SamplePeriodMs int64  `json:"sample_period_ms"`
	Threshold      uint32 `json:"threshold"`
	LoopDelayMs    int64  `json:"loop_delay_ms"`
	WatchdogMs     int64  `json:"watchdog_ms"`
	Control        bool   `json:"control"`
	HTTPAddr       string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Channel: ChannelStatus{
			Connected: snap.Connected,
			Transport: snap.Config.Transport,
			Endpoint:  snap.Config.Endpoint,
		},
		Windows: WindowsJSON{
			Sent:    snap.WindowsSent,
			Dropped: snap.WindowsDrop,
		},
		Commands:      snap.Commands,
		SensorErrors:  snap.SensorErrors,
		WatchdogFeeds: snap.WatchdogFeeds,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Config: ConfigJSON{
			SamplePeriodMs: snap.Config.SamplePeriodMs,
			Threshold:      snap.Config.Threshold,
			LoopDelayMs:    snap.Config.LoopDelayMs,
			WatchdogMs:     snap.Config.WatchdogMs,
			Control:        snap.Config.Control,
			HTTPAddr:       snap.Config.HTTPAddr,
		},
	}
	if snap.HaveAverage {
		avg := snap.LastAverage
		inner.Windows.LastAverage = &avg
		inner.Windows.LastAt = snap.LastWindowAt.UTC().Format(time.RFC3339)
	}
	if snap.Config.Control {
		inner.Actuator = &ActuatorJSON{Permitted: snap.Permitted, Active: snap.Actuator}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// HealthJSON is the liveness report served on /healthz.
type HealthJSON struct {
	Loop          string `json:"loop"`
	Channel       string `json:"channel"`
	WatchdogFeeds uint64 `json:"watchdog_feeds"`
}

// FormatHealth reports loop liveness and channel state. healthy is false
// when the loop has stalled; a disconnected channel alone is still healthy
// because the daemon keeps reconnecting.
func FormatHealth(snap Snapshot) (body []byte, healthy bool) {
	h := HealthJSON{
		Loop:          "ok",
		Channel:       "disconnected",
		WatchdogFeeds: snap.WatchdogFeeds,
	}
	if snap.LoopStalled() {
		h.Loop = "stalled"
	}
	if snap.Connected {
		h.Channel = "connected"
	}
	data, _ := json.Marshal(h)
	return data, h.Loop == "ok"
}
