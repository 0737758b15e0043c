// Package config provides fail-open environment loading.
//
// Each loader reads one variable, parses and validates it, and falls back to
// a default when the value is missing or invalid. Fallbacks are reported as
// warnings so the caller can log them and surface them as metrics instead of
// refusing to start.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Result is the outcome of loading one environment variable.
type Result[T any] struct {
	Value           T
	Warnings        []string
	FallbackApplied bool
}

// Parser converts a raw environment value into T.
type Parser[T any] func(raw string) (T, error)

// Validator checks a parsed value. Nil validators accept everything.
type Validator[T any] func(v T) error

// Load reads key from the environment. An unset or blank variable yields
// def without a warning; a value that fails to parse or validate yields def
// with a warning and FallbackApplied set.
func Load[T any](key string, def T, parse Parser[T], validate Validator[T]) Result[T] {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return Result[T]{Value: def}
	}

	v, err := parse(raw)
	if err != nil {
		return fallback(key, raw, def, err)
	}
	if validate != nil {
		if err := validate(v); err != nil {
			return fallback(key, raw, def, err)
		}
	}
	return Result[T]{Value: v}
}

func fallback[T any](key, raw string, def T, err error) Result[T] {
	return Result[T]{
		Value:           def,
		Warnings:        []string{fmt.Sprintf("%s=%q is invalid (%v), using default %v", key, raw, err, def)},
		FallbackApplied: true,
	}
}

// LoadString loads a string variable.
func LoadString(key, def string, validate Validator[string]) Result[string] {
	return Load(key, def, func(raw string) (string, error) { return raw, nil }, validate)
}

// LoadInt loads a base-10 integer variable.
func LoadInt(key string, def int, validate Validator[int]) Result[int] {
	return Load(key, def, strconv.Atoi, validate)
}

// LoadDuration loads a time.ParseDuration formatted variable.
func LoadDuration(key string, def time.Duration, validate Validator[time.Duration]) Result[time.Duration] {
	return Load(key, def, time.ParseDuration, validate)
}

// LoadBool loads a strconv.ParseBool formatted variable.
func LoadBool(key string, def bool) Result[bool] {
	return Load(key, def, strconv.ParseBool, nil)
}
