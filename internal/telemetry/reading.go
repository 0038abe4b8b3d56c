// Package telemetry converts raw iLO hardware-status documents into
// normalized readings: metric kind, ordered label values, numeric value.
// Parsing is pure and does no I/O.
package telemetry

// MetricKind names a normalized metric. Each kind has a fixed label shape,
// so vendor field variability can never change label cardinality.
type MetricKind string

const (
	TemperatureCelsius     MetricKind = "temperature_celsius"
	SensorState            MetricKind = "sensor_state"
	FanSpeedPercent        MetricKind = "fan_speed_percent"
	FanSpeedRPM            MetricKind = "fan_speed_rpm"
	FanState               MetricKind = "fan_state"
	VoltageVolts           MetricKind = "voltage_volts"
	VoltageState           MetricKind = "voltage_state"
	PowerConsumedWatts     MetricKind = "power_consumed_watts"
	PowerCapacityWatts     MetricKind = "power_capacity_watts"
	PowerSupplyOutputWatts MetricKind = "power_supply_output_watts"
	PowerSupplyState       MetricKind = "power_supply_state"
	ComponentHealth        MetricKind = "component_health"
	PowerState             MetricKind = "power_state"
	MemoryTotalBytes       MetricKind = "memory_total_bytes"
	SystemInfo             MetricKind = "system_info"
)

// Reading is one normalized telemetry value. Labels are ordered to match the
// kind's declared label names. Health states are readings of dedicated state
// kinds, sharing the same fixed encoding.
type Reading struct {
	Kind   MetricKind
	Labels []string
	Value  float64
}

// HealthState is the stable encoding for vendor health vocabulary.
type HealthState float64

const (
	StateUnknown  HealthState = 0
	StateOK       HealthState = 1
	StateDegraded HealthState = 2
	StateFailed   HealthState = 3
	StateAbsent   HealthState = 4
)
