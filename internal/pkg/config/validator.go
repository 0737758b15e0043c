package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser matches the parser cron.New uses by default, so a schedule that
// validates here is accepted by the scheduler.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateCronSchedule checks a five-field cron expression or a descriptor
// such as "@hourly" or "@every 30m".
func ValidateCronSchedule(schedule string) error {
	if schedule == "" {
		return fmt.Errorf("invalid cron schedule: cannot be empty")
	}
	if _, err := cronParser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", schedule, err)
	}
	return nil
}

// ValidateTimezone checks that timezone is a loadable IANA name.
// Images without tzdata only accept "UTC" and "Local".
func ValidateTimezone(timezone string) error {
	if timezone == "" {
		return fmt.Errorf("invalid timezone: cannot be empty")
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return fmt.Errorf("invalid timezone '%s': %w", timezone, err)
	}
	return nil
}

// DurationBetween returns a Validator accepting durations in [min, max].
func DurationBetween(min, max time.Duration) Validator[time.Duration] {
	return func(d time.Duration) error {
		if min > max {
			return fmt.Errorf("invalid range: min (%v) cannot be greater than max (%v)", min, max)
		}
		if d < min {
			return fmt.Errorf("duration %v is below minimum %v", d, min)
		}
		if d > max {
			return fmt.Errorf("duration %v exceeds maximum %v", d, max)
		}
		return nil
	}
}

// IntBetween returns a Validator accepting integers in [min, max].
func IntBetween(min, max int) Validator[int] {
	return func(v int) error {
		if min > max {
			return fmt.Errorf("invalid range: min (%d) cannot be greater than max (%d)", min, max)
		}
		if v < min {
			return fmt.Errorf("value %d is below minimum %d", v, min)
		}
		if v > max {
			return fmt.Errorf("value %d exceeds maximum %d", v, max)
		}
		return nil
	}
}

// ValidatePositiveDuration rejects zero and negative durations.
func ValidatePositiveDuration(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %v", d)
	}
	return nil
}

// OneOf returns a case-insensitive Validator accepting only allowed values.
func OneOf(allowed ...string) Validator[string] {
	return func(v string) error {
		if slices.ContainsFunc(allowed, func(a string) bool { return strings.EqualFold(a, v) }) {
			return nil
		}
		return fmt.Errorf("value %q is not one of %s", v, strings.Join(allowed, ", "))
	}
}
