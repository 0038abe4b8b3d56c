package telemetry

import (
	"bytes"
	"strconv"
	"strings"
)

// flexFloat tolerates the numeric representations seen across iLO firmware
// generations: JSON numbers, numeric strings, strings with a trailing unit
// ("123 Watts"), "N/A", and null. Unparsable values are simply not valid,
// never a parse failure.
type flexFloat struct {
	value float64
	valid bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	f.value = 0
	f.valid = false

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	s := string(data)
	if s[0] == '"' {
		s = strings.TrimSpace(strings.Trim(s, `"`))
		if s == "" || strings.EqualFold(s, "n/a") {
			return nil
		}
		// Drop a trailing unit suffix, e.g. "123 Watts".
		if i := strings.IndexByte(s, ' '); i > 0 {
			s = s[:i]
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	f.value = v
	f.valid = true
	return nil
}

// resourceStatus is the common Redfish status block. Older iLO firmware
// spells the rollup key "HealthRollUp".
type resourceStatus struct {
	State         string `json:"State"`
	Health        string `json:"Health"`
	HealthRollup  string `json:"HealthRollup"`
	HealthRollUp2 string `json:"HealthRollUp"`
}

func (s resourceStatus) empty() bool {
	return s.State == "" && s.Health == "" && s.HealthRollup == "" && s.HealthRollUp2 == ""
}

// healthFromStatus maps vendor health wording onto the fixed encoding.
func healthFromStatus(s resourceStatus) HealthState {
	if strings.EqualFold(s.State, "Absent") {
		return StateAbsent
	}
	health := s.Health
	if health == "" {
		health = s.HealthRollup
	}
	if health == "" {
		health = s.HealthRollUp2
	}
	switch strings.ToLower(health) {
	case "ok":
		return StateOK
	case "warning", "degraded":
		return StateDegraded
	case "critical", "failed":
		return StateFailed
	}
	return StateUnknown
}

type thermalDocument struct {
	Temperatures []temperatureEntry `json:"Temperatures"`
	Fans         []fanEntry         `json:"Fans"`
}

type temperatureEntry struct {
	Name           string         `json:"Name"`
	ReadingCelsius flexFloat      `json:"ReadingCelsius"`
	CurrentReading flexFloat      `json:"CurrentReading"`
	Units          string         `json:"Units"`
	Status         resourceStatus `json:"Status"`
}

type fanEntry struct {
	Name           string         `json:"Name"`
	FanName        string         `json:"FanName"`
	Reading        flexFloat      `json:"Reading"`
	ReadingUnits   string         `json:"ReadingUnits"`
	CurrentReading flexFloat      `json:"CurrentReading"`
	Units          string         `json:"Units"`
	Status         resourceStatus `json:"Status"`
}

type powerDocument struct {
	PowerControl  []powerControlEntry `json:"PowerControl"`
	PowerSupplies []powerSupplyEntry  `json:"PowerSupplies"`
	Voltages      []voltageEntry      `json:"Voltages"`
}

type powerControlEntry struct {
	PowerConsumedWatts flexFloat `json:"PowerConsumedWatts"`
	PowerCapacityWatts flexFloat `json:"PowerCapacityWatts"`
	PowerMetrics       struct {
		AverageConsumedWatts flexFloat `json:"AverageConsumedWatts"`
	} `json:"PowerMetrics"`
}

type powerSupplyEntry struct {
	Name                 string         `json:"Name"`
	LastPowerOutputWatts flexFloat      `json:"LastPowerOutputWatts"`
	PowerOutputWatts     flexFloat      `json:"PowerOutputWatts"`
	Status               resourceStatus `json:"Status"`
	Oem                  struct {
		Hp struct {
			BayNumber flexFloat `json:"BayNumber"`
		} `json:"Hp"`
	} `json:"Oem"`
}

type voltageEntry struct {
	Name         string         `json:"Name"`
	ReadingVolts flexFloat      `json:"ReadingVolts"`
	Status       resourceStatus `json:"Status"`
}

type systemDocument struct {
	Model         string         `json:"Model"`
	SerialNumber  string         `json:"SerialNumber"`
	PowerState    string         `json:"PowerState"`
	Status        resourceStatus `json:"Status"`
	MemorySummary struct {
		TotalSystemMemoryGiB flexFloat      `json:"TotalSystemMemoryGiB"`
		Status               resourceStatus `json:"Status"`
	} `json:"MemorySummary"`
	ProcessorSummary struct {
		Count  flexFloat      `json:"Count"`
		Status resourceStatus `json:"Status"`
	} `json:"ProcessorSummary"`
}
