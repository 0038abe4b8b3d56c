package telemetry

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ilometrics/ilo_exporter/internal/ilo"
	"github.com/ilometrics/ilo_exporter/pkg/utils"
)

// ParseError means one document's required envelope was missing or invalid.
// It is scoped to that document; other documents from the same scrape still
// yield readings.
type ParseError struct {
	Endpoint string
	Detail   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("telemetry: parsing %s: %s", e.Endpoint, e.Detail)
}

// Parse converts one raw health document into readings. Missing optional
// fields yield no reading for that field; an Absent component yields a state
// reading but no value reading.
func Parse(doc ilo.Document) ([]Reading, error) {
	switch doc.Kind {
	case ilo.DocThermal:
		return parseThermal(doc)
	case ilo.DocPower:
		return parsePower(doc)
	case ilo.DocSystem:
		return parseSystem(doc)
	}
	return nil, &ParseError{Endpoint: doc.Endpoint, Detail: fmt.Sprintf("unknown document kind %q", doc.Kind)}
}

func parseThermal(doc ilo.Document) ([]Reading, error) {
	var td thermalDocument
	if err := json.Unmarshal(doc.Body, &td); err != nil {
		return nil, &ParseError{Endpoint: doc.Endpoint, Detail: err.Error()}
	}
	if td.Temperatures == nil && td.Fans == nil {
		return nil, &ParseError{Endpoint: doc.Endpoint, Detail: "no thermal sections present"}
	}

	var readings []Reading
	for _, t := range td.Temperatures {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			continue
		}

		state := healthFromStatus(t.Status)
		readings = append(readings, Reading{Kind: SensorState, Labels: []string{name}, Value: float64(state)})
		if state == StateAbsent {
			continue
		}

		if v, ok := temperatureCelsius(t); ok {
			readings = append(readings, Reading{Kind: TemperatureCelsius, Labels: []string{name}, Value: v})
		}
	}

	for _, f := range td.Fans {
		name := strings.TrimSpace(f.FanName)
		if name == "" {
			name = strings.TrimSpace(f.Name)
		}
		if name == "" {
			continue
		}

		state := healthFromStatus(f.Status)
		readings = append(readings, Reading{Kind: FanState, Labels: []string{name}, Value: float64(state)})
		if state == StateAbsent {
			continue
		}

		value, units := f.Reading, f.ReadingUnits
		if !value.valid {
			value, units = f.CurrentReading, f.Units
		}
		if !value.valid {
			continue
		}
		kind := FanSpeedPercent
		if strings.EqualFold(units, "rpm") {
			kind = FanSpeedRPM
		}
		readings = append(readings, Reading{Kind: kind, Labels: []string{name}, Value: value.value})
	}

	return readings, nil
}

// temperatureCelsius normalizes a temperature entry to Celsius. Recent
// firmware reports ReadingCelsius directly; older firmware reports
// CurrentReading plus a Units field.
func temperatureCelsius(t temperatureEntry) (float64, bool) {
	if t.ReadingCelsius.valid {
		return t.ReadingCelsius.value, true
	}
	if !t.CurrentReading.valid {
		return 0, false
	}
	if strings.EqualFold(t.Units, "fahrenheit") {
		return utils.Round((t.CurrentReading.value-32)*5/9, 1), true
	}
	return t.CurrentReading.value, true
}

func parsePower(doc ilo.Document) ([]Reading, error) {
	var pd powerDocument
	if err := json.Unmarshal(doc.Body, &pd); err != nil {
		return nil, &ParseError{Endpoint: doc.Endpoint, Detail: err.Error()}
	}
	if pd.PowerControl == nil && pd.PowerSupplies == nil && pd.Voltages == nil {
		return nil, &ParseError{Endpoint: doc.Endpoint, Detail: "no power sections present"}
	}

	var readings []Reading
	for _, pc := range pd.PowerControl {
		consumed := pc.PowerConsumedWatts
		if !consumed.valid {
			consumed = pc.PowerMetrics.AverageConsumedWatts
		}
		if !consumed.valid {
			continue
		}
		readings = append(readings, Reading{Kind: PowerConsumedWatts, Value: consumed.value})
		if pc.PowerCapacityWatts.valid {
			readings = append(readings, Reading{Kind: PowerCapacityWatts, Value: pc.PowerCapacityWatts.value})
		}
		// One reading per chassis; further PowerControl entries repeat it.
		break
	}

	for i, psu := range pd.PowerSupplies {
		bay := supplyBay(psu, i)
		state := healthFromStatus(psu.Status)
		readings = append(readings, Reading{Kind: PowerSupplyState, Labels: []string{bay}, Value: float64(state)})
		if state == StateAbsent {
			continue
		}

		output := psu.LastPowerOutputWatts
		if !output.valid {
			output = psu.PowerOutputWatts
		}
		if output.valid {
			readings = append(readings, Reading{Kind: PowerSupplyOutputWatts, Labels: []string{bay}, Value: output.value})
		}
	}

	for _, v := range pd.Voltages {
		name := strings.TrimSpace(v.Name)
		if name == "" {
			continue
		}
		state := healthFromStatus(v.Status)
		readings = append(readings, Reading{Kind: VoltageState, Labels: []string{name}, Value: float64(state)})
		if state != StateAbsent && v.ReadingVolts.valid {
			readings = append(readings, Reading{Kind: VoltageVolts, Labels: []string{name}, Value: utils.Round(v.ReadingVolts.value, 3)})
		}
	}

	return readings, nil
}

// supplyBay labels a power supply by its HP bay number when present, falling
// back to the supply name or its position in the document.
func supplyBay(psu powerSupplyEntry, index int) string {
	if psu.Oem.Hp.BayNumber.valid {
		return strconv.Itoa(int(psu.Oem.Hp.BayNumber.value))
	}
	if name := strings.TrimSpace(psu.Name); name != "" {
		return name
	}
	return strconv.Itoa(index + 1)
}

func parseSystem(doc ilo.Document) ([]Reading, error) {
	var sd systemDocument
	if err := json.Unmarshal(doc.Body, &sd); err != nil {
		return nil, &ParseError{Endpoint: doc.Endpoint, Detail: err.Error()}
	}
	if sd.Model == "" && sd.PowerState == "" && sd.Status.empty() {
		return nil, &ParseError{Endpoint: doc.Endpoint, Detail: "not a computer system resource"}
	}

	var readings []Reading
	if !sd.Status.empty() {
		readings = append(readings, Reading{Kind: ComponentHealth, Labels: []string{"system"}, Value: float64(healthFromStatus(sd.Status))})
	}
	if !sd.MemorySummary.Status.empty() {
		readings = append(readings, Reading{Kind: ComponentHealth, Labels: []string{"memory"}, Value: float64(healthFromStatus(sd.MemorySummary.Status))})
	}
	if !sd.ProcessorSummary.Status.empty() {
		readings = append(readings, Reading{Kind: ComponentHealth, Labels: []string{"processors"}, Value: float64(healthFromStatus(sd.ProcessorSummary.Status))})
	}

	if sd.PowerState != "" {
		on := 0.0
		if strings.EqualFold(sd.PowerState, "On") {
			on = 1.0
		}
		readings = append(readings, Reading{Kind: PowerState, Value: on})
	}

	if sd.MemorySummary.TotalSystemMemoryGiB.valid {
		readings = append(readings, Reading{
			Kind:  MemoryTotalBytes,
			Value: sd.MemorySummary.TotalSystemMemoryGiB.value * 1024 * 1024 * 1024,
		})
	}

	if sd.Model != "" || sd.SerialNumber != "" {
		readings = append(readings, Reading{
			Kind:   SystemInfo,
			Labels: []string{strings.TrimSpace(sd.Model), strings.TrimSpace(sd.SerialNumber)},
			Value:  1,
		})
	}

	return readings, nil
}
