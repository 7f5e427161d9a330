// Package types implements special types for the finance backend.
package types

import (
	"errors"
	"fmt"
	"strings"
)

// Frequency is the cadence on which a recurring rule generates ledger entries.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

var ErrInvalidFrequency = errors.New("frequency must be one of daily, weekly, monthly, yearly")

// ParseFrequency parses a string into a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("%w, got %q", ErrInvalidFrequency, s)
	}

	return f, nil
}

// Valid reports whether the frequency is one of the known cadences.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}

	return false
}

func (f Frequency) String() string {
	return string(f)
}

// GormDataType defines the data type used by gorm for the type.
func (Frequency) GormDataType() string {
	return "text"
}
