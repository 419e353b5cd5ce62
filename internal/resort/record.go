package resort

import "math"

// RawRecord is one resort entry as read from a listing page. A nil numeric
// field means the value was absent from the markup; NaN means the label was
// present but not numeric.
type RawRecord struct {
	Name    string
	Highest *float64
	Lowest  *float64
	Drop    *float64
}

// Record is a validated resort entry. All elevations are in meters.
type Record struct {
	Name    string  `json:"name"`
	Highest float64 `json:"highest"`
	Lowest  float64 `json:"lowest"`
	Drop    float64 `json:"diff"`
}

// Float returns a pointer to v, for building RawRecords.
func Float(v float64) *float64 {
	return &v
}

func isNumber(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
