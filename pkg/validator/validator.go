package validator

import "github.com/google/uuid"

// Validator collects field errors: field -> message
type Validator struct {
	Errors map[string]string
}

func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid returns true if the errors map doesn't contain any entries
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError adds an error message to the map, first message per key wins
func (v *Validator) AddError(key, message string) {
	if _, exists := v.Errors[key]; !exists {
		v.Errors[key] = message
	}
}

// Check adds an error message only if ok is false
func (v *Validator) Check(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}

// IsUUID reports whether s parses as a UUID
func IsUUID(s string) bool {
	return uuid.Validate(s) == nil
}

// Latitude and Longitude check coordinate ranges
func Latitude(v float64) bool  { return v >= -90 && v <= 90 }
func Longitude(v float64) bool { return v >= -180 && v <= 180 }
