package telemetry_test

import (
	"testing"

	"github.com/ilometrics/ilo_exporter/internal/ilo"
	"github.com/ilometrics/ilo_exporter/internal/telemetry"
	"github.com/stretchr/testify/require"
)

func thermalDoc(body string) ilo.Document {
	return ilo.Document{Kind: ilo.DocThermal, Endpoint: "/redfish/v1/Chassis/1/Thermal", Body: []byte(body)}
}

func powerDoc(body string) ilo.Document {
	return ilo.Document{Kind: ilo.DocPower, Endpoint: "/redfish/v1/Chassis/1/Power", Body: []byte(body)}
}

func systemDoc(body string) ilo.Document {
	return ilo.Document{Kind: ilo.DocSystem, Endpoint: "/redfish/v1/Systems/1", Body: []byte(body)}
}

// find returns the single reading with the given kind and labels, failing the
// test when it is missing or duplicated.
func find(t *testing.T, readings []telemetry.Reading, kind telemetry.MetricKind, labels ...string) telemetry.Reading {
	t.Helper()
	var found []telemetry.Reading
	for _, r := range readings {
		if r.Kind != kind {
			continue
		}
		if len(r.Labels) != len(labels) {
			continue
		}
		match := true
		for i := range labels {
			if r.Labels[i] != labels[i] {
				match = false
			}
		}
		if match {
			found = append(found, r)
		}
	}
	require.Len(t, found, 1, "expected exactly one reading for %s%v", kind, labels)
	return found[0]
}

func hasReading(readings []telemetry.Reading, kind telemetry.MetricKind, labels ...string) bool {
	for _, r := range readings {
		if r.Kind != kind || len(r.Labels) != len(labels) {
			continue
		}
		match := true
		for i := range labels {
			if r.Labels[i] != labels[i] {
				match = false
			}
		}
		if match {
			return true
		}
	}
	return false
}

func TestParseThermalSensors(t *testing.T) {
	doc := thermalDoc(`{
		"Temperatures": [
			{"Name": "CPU1", "ReadingCelsius": 45, "Status": {"State": "Enabled", "Health": "OK"}},
			{"Name": "CPU2", "Status": {"State": "Absent"}}
		],
		"Fans": []
	}`)

	readings, err := telemetry.Parse(doc)
	require.NoError(t, err)

	require.Equal(t, 45.0, find(t, readings, telemetry.TemperatureCelsius, "CPU1").Value)
	require.Equal(t, float64(telemetry.StateOK), find(t, readings, telemetry.SensorState, "CPU1").Value)

	// An absent sensor yields a state reading but no value reading.
	require.Equal(t, float64(telemetry.StateAbsent), find(t, readings, telemetry.SensorState, "CPU2").Value)
	require.False(t, hasReading(readings, telemetry.TemperatureCelsius, "CPU2"))
}

func TestParseThermalFahrenheitConversion(t *testing.T) {
	doc := thermalDoc(`{
		"Temperatures": [
			{"Name": "Ambient", "CurrentReading": 113, "Units": "Fahrenheit", "Status": {"State": "Enabled", "Health": "OK"}}
		]
	}`)

	readings, err := telemetry.Parse(doc)
	require.NoError(t, err)
	require.Equal(t, 45.0, find(t, readings, telemetry.TemperatureCelsius, "Ambient").Value)
}

func TestParseThermalNumericStrings(t *testing.T) {
	doc := thermalDoc(`{
		"Temperatures": [
			{"Name": "Inlet", "ReadingCelsius": "23", "Status": {"State": "Enabled", "Health": "OK"}},
			{"Name": "Exhaust", "ReadingCelsius": "N/A", "Status": {"State": "Enabled", "Health": "OK"}}
		]
	}`)

	readings, err := telemetry.Parse(doc)
	require.NoError(t, err)
	require.Equal(t, 23.0, find(t, readings, telemetry.TemperatureCelsius, "Inlet").Value)

	// Unreadable value yields a state reading but no temperature.
	require.False(t, hasReading(readings, telemetry.TemperatureCelsius, "Exhaust"))
	require.True(t, hasReading(readings, telemetry.SensorState, "Exhaust"))
}

func TestParseThermalFans(t *testing.T) {
	doc := thermalDoc(`{
		"Fans": [
			{"FanName": "Fan 1", "CurrentReading": 23, "Units": "Percentage", "Status": {"State": "Enabled", "Health": "OK"}},
			{"Name": "Fan 2", "Reading": 4800, "ReadingUnits": "RPM", "Status": {"State": "Enabled", "Health": "Warning"}},
			{"Name": "Fan 3", "Status": {"State": "Absent"}}
		]
	}`)

	readings, err := telemetry.Parse(doc)
	require.NoError(t, err)

	require.Equal(t, 23.0, find(t, readings, telemetry.FanSpeedPercent, "Fan 1").Value)
	require.Equal(t, 4800.0, find(t, readings, telemetry.FanSpeedRPM, "Fan 2").Value)
	require.Equal(t, float64(telemetry.StateDegraded), find(t, readings, telemetry.FanState, "Fan 2").Value)
	require.Equal(t, float64(telemetry.StateAbsent), find(t, readings, telemetry.FanState, "Fan 3").Value)
	require.False(t, hasReading(readings, telemetry.FanSpeedPercent, "Fan 3"))
}

func TestParsePower(t *testing.T) {
	doc := powerDoc(`{
		"PowerControl": [
			{"PowerConsumedWatts": 168, "PowerCapacityWatts": 800}
		],
		"PowerSupplies": [
			{"Name": "Power Supply 1", "LastPowerOutputWatts": "82", "Status": {"State": "Enabled", "Health": "OK"}, "Oem": {"Hp": {"BayNumber": 1}}},
			{"Name": "Power Supply 2", "Status": {"State": "Absent"}, "Oem": {"Hp": {"BayNumber": 2}}}
		],
		"Voltages": [
			{"Name": "VBAT", "ReadingVolts": 3.30785, "Status": {"State": "Enabled", "Health": "OK"}}
		]
	}`)

	readings, err := telemetry.Parse(doc)
	require.NoError(t, err)

	require.Equal(t, 168.0, find(t, readings, telemetry.PowerConsumedWatts).Value)
	require.Equal(t, 800.0, find(t, readings, telemetry.PowerCapacityWatts).Value)
	require.Equal(t, 82.0, find(t, readings, telemetry.PowerSupplyOutputWatts, "1").Value)
	require.Equal(t, float64(telemetry.StateOK), find(t, readings, telemetry.PowerSupplyState, "1").Value)
	require.Equal(t, float64(telemetry.StateAbsent), find(t, readings, telemetry.PowerSupplyState, "2").Value)
	require.False(t, hasReading(readings, telemetry.PowerSupplyOutputWatts, "2"))
	require.Equal(t, 3.308, find(t, readings, telemetry.VoltageVolts, "VBAT").Value)
}

func TestParsePowerAverageFallback(t *testing.T) {
	doc := powerDoc(`{
		"PowerControl": [
			{"PowerMetrics": {"AverageConsumedWatts": 154}}
		]
	}`)

	readings, err := telemetry.Parse(doc)
	require.NoError(t, err)
	require.Equal(t, 154.0, find(t, readings, telemetry.PowerConsumedWatts).Value)
}

func TestParsePowerUnitSuffix(t *testing.T) {
	doc := powerDoc(`{
		"PowerControl": [
			{"PowerConsumedWatts": "123 Watts"}
		]
	}`)

	readings, err := telemetry.Parse(doc)
	require.NoError(t, err)
	require.Equal(t, 123.0, find(t, readings, telemetry.PowerConsumedWatts).Value)
}

func TestParseSystem(t *testing.T) {
	doc := systemDoc(`{
		"Model": "ProLiant DL380 Gen9",
		"SerialNumber": "CZJ1234567",
		"PowerState": "On",
		"Status": {"State": "Enabled", "Health": "OK"},
		"MemorySummary": {
			"TotalSystemMemoryGiB": 128,
			"Status": {"HealthRollUp": "Degraded"}
		},
		"ProcessorSummary": {
			"Count": 2,
			"Status": {"HealthRollup": "OK"}
		}
	}`)

	readings, err := telemetry.Parse(doc)
	require.NoError(t, err)

	require.Equal(t, float64(telemetry.StateOK), find(t, readings, telemetry.ComponentHealth, "system").Value)
	require.Equal(t, float64(telemetry.StateDegraded), find(t, readings, telemetry.ComponentHealth, "memory").Value)
	require.Equal(t, float64(telemetry.StateOK), find(t, readings, telemetry.ComponentHealth, "processors").Value)
	require.Equal(t, 1.0, find(t, readings, telemetry.PowerState).Value)
	require.Equal(t, 128*1024*1024*1024.0, find(t, readings, telemetry.MemoryTotalBytes).Value)
	require.Equal(t, 1.0, find(t, readings, telemetry.SystemInfo, "ProLiant DL380 Gen9", "CZJ1234567").Value)
}

func TestParseMalformedDocuments(t *testing.T) {
	cases := map[string]ilo.Document{
		"invalid json":        thermalDoc(`{not json`),
		"no thermal sections": thermalDoc(`{"Oem": {}}`),
		"no power sections":   powerDoc(`{}`),
		"not a system":        systemDoc(`{}`),
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			readings, err := telemetry.Parse(doc)
			require.Empty(t, readings)

			var parseErr *telemetry.ParseError
			require.ErrorAs(t, err, &parseErr)
			require.Equal(t, doc.Endpoint, parseErr.Endpoint)
		})
	}
}

func TestParseEmptySectionsAreValid(t *testing.T) {
	readings, err := telemetry.Parse(thermalDoc(`{"Temperatures": [], "Fans": []}`))
	require.NoError(t, err)
	require.Empty(t, readings)
}

func TestParseIsDeterministic(t *testing.T) {
	doc := thermalDoc(`{
		"Temperatures": [
			{"Name": "CPU1", "ReadingCelsius": 45, "Status": {"State": "Enabled", "Health": "OK"}},
			{"Name": "CPU2", "ReadingCelsius": 47, "Status": {"State": "Enabled", "Health": "OK"}}
		],
		"Fans": [
			{"FanName": "Fan 1", "CurrentReading": 23, "Units": "Percentage", "Status": {"State": "Enabled", "Health": "OK"}}
		]
	}`)

	first, err := telemetry.Parse(doc)
	require.NoError(t, err)
	second, err := telemetry.Parse(doc)
	require.NoError(t, err)
	require.Equal(t, first, second)
}
