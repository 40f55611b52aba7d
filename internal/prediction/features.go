// Package prediction classifies landslide risk through the remote inference
// service.
package prediction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Number is a model input that decodes from a JSON number, a numeric string
// or null. Null and the empty string decode to 0.
type Number float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		data = []byte(s)
	}

	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid number %s", data)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("invalid number %s", data)
	}
	*n = Number(v)
	return nil
}

// Features are the model inputs as the dashboard submits them. Absent keys
// are 0.
type Features struct {
	SoilType     Number `json:"soil_type"`
	Slope        Number `json:"slope"`
	SoilMoisture Number `json:"soil_moisture"`

	Rainfall3h   Number `json:"rainfall-3-hr"`
	Rainfall6h   Number `json:"rainfall-6-hr"`
	Rainfall12h  Number `json:"rainfall-12-hr"`
	Intensity3h  Number `json:"rain-intensity-3-hr"`
	Intensity6h  Number `json:"rain-intensity-6hr"`
	Intensity12h Number `json:"rain-intensity-12-hr"`

	Rainfall1d  Number `json:"rainfall-1-day"`
	Rainfall3d  Number `json:"rainfall-3-day"`
	Rainfall5d  Number `json:"rainfall-5-day"`
	Intensity1d Number `json:"rain-intensity-1-day"`
	Intensity3d Number `json:"rain-intensity-3-day"`
	Intensity5d Number `json:"rain-intensity-5-day"`
}

// FeatureCount is the length of the model input vector.
const FeatureCount = 15

// Vector returns the inputs in the order the model was trained on. Soil type
// is a class id and is truncated to an integer.
func (f Features) Vector() []float64 {
	return []float64{
		math.Trunc(float64(f.SoilType)),
		float64(f.Slope),
		float64(f.SoilMoisture),
		float64(f.Rainfall3h),
		float64(f.Rainfall6h),
		float64(f.Rainfall12h),
		float64(f.Intensity3h),
		float64(f.Intensity6h),
		float64(f.Intensity12h),
		float64(f.Rainfall1d),
		float64(f.Rainfall3d),
		float64(f.Rainfall5d),
		float64(f.Intensity1d),
		float64(f.Intensity3d),
		float64(f.Intensity5d),
	}
}
