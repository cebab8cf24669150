package handoff

import (
	"regexp"
	"strconv"
	"strings"
)

var vitalAliases = map[string]string{
	"spo2": "SpO2", "sp02": "SpO2", "sao2": "SpO2", "o2sat": "SpO2", "o2saturation": "SpO2",
	"oxygensaturation": "SpO2", "saturation": "SpO2", "sats": "SpO2", "sat": "SpO2",
	"bp": "BP", "bloodpressure": "BP", "nibp": "BP", "sbp": "BP", "systolic": "BP",
	"temp": "Temp", "temperature": "Temp", "t": "Temp",
	"hr": "HR", "pulse": "HR", "heartrate": "HR", "pr": "HR",
	"rr": "RR", "resprate": "RR", "respiratoryrate": "RR", "respiration": "RR",
	"glucose": "Glucose", "bloodglucose": "Glucose", "bloodsugar": "Glucose",
	"bsl": "Glucose", "cbg": "Glucose", "grbs": "Glucose", "rbs": "Glucose",
	"qtc": "QTc", "gcs": "GCS", "pain": "Pain", "painscore": "Pain",
}

// canonicalVitalType maps free-form vital names onto a stable type
func canonicalVitalType(raw string) string {
	key := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, strings.ToLower(raw))
	if canonical, ok := vitalAliases[key]; ok {
		return canonical
	}
	return strings.TrimSpace(raw)
}

var vitalValuePattern = regexp.MustCompile(`(?i)^\s*(-?\d+(?:\.\d+)?)\s*(?:/\s*(\d+(?:\.\d+)?))?\s*(%|°\s*[cf]|mm\s*hg|bpm|/min|mg/dl|mmol/l|ms|[cf]\b)?`)

// parseVitalValue reads the leading numeric reading of a vital, e.g. "120/80", "88% on RA", "101F"
func parseVitalValue(vitalType, raw string) (value, secondary *float64, unit string, ok bool) {
	m := vitalValuePattern.FindStringSubmatch(raw)
	if m == nil {
		return nil, nil, "", false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, nil, "", false
	}
	value = &v
	if m[2] != "" {
		if s, err := strconv.ParseFloat(m[2], 64); err == nil {
			secondary = &s
		}
	}
	unit = normalizeUnit(m[3])
	if unit == "" {
		unit = defaultUnit(vitalType, v)
	}
	return value, secondary, unit, true
}

func normalizeUnit(u string) string {
	u = strings.ToLower(strings.NewReplacer(" ", "", "°", "").Replace(u))
	switch u {
	case "":
		return ""
	case "c":
		return "C"
	case "f":
		return "F"
	case "mmhg":
		return "mmHg"
	case "mg/dl":
		return "mg/dL"
	case "mmol/l":
		return "mmol/L"
	}
	return u
}

func defaultUnit(vitalType string, v float64) string {
	switch vitalType {
	case "SpO2":
		return "%"
	case "BP":
		return "mmHg"
	case "HR":
		return "bpm"
	case "RR":
		return "/min"
	case "QTc":
		return "ms"
	case "Temp":
		if v > 45 {
			return "F"
		}
		return "C"
	}
	return ""
}

// celsius converts a temperature reading to Celsius
func celsius(v float64, unit string) float64 {
	if unit == "F" {
		return (v - 32) * 5 / 9
	}
	return v
}
