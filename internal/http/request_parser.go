// Package http serves the finance API over chi.
//
// This file implements utilities for decoding and validating request data.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"finhelper/internal/core"
)

// maxBodyBytes bounds JSON request bodies. Imports have their own limit.
const (
	maxBodyBytes   = 1 << 20
	maxImportBytes = 32 << 20
)

// BodyError is a request body that could not be decoded.
type BodyError struct {
	Err error
}

func (e *BodyError) Error() string {
	return "invalid request body: " + e.Err.Error()
}

func (e *BodyError) Unwrap() error {
	return e.Err
}

// decodeJSON reads a single JSON object into dst. Amount and date fields that
// fail their own decoding are reported as validation errors on that field.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		switch {
		case errors.Is(err, io.EOF):
			return &BodyError{Err: errors.New("empty body")}
		case errors.Is(err, core.ErrInvalidAmount):
			return &core.ValidationError{Field: "amount", Err: core.ErrInvalidAmount}
		case errors.Is(err, core.ErrInvalidDate):
			return &core.ValidationError{Field: "date", Err: core.ErrInvalidDate}
		default:
			return &BodyError{Err: err}
		}
	}
	if dec.More() {
		return &BodyError{Err: errors.New("trailing data after JSON object")}
	}
	return nil
}

// sanitizeInput drops control characters other than tab and newlines, and
// trims surrounding whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// sanitizePtr applies sanitizeInput to an optional field.
func sanitizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := sanitizeInput(*s)
	return &v
}

// parseMonthParam reads a YYYY-MM query parameter, returning fallback when it
// is absent.
func parseMonthParam(query url.Values, name string, fallback core.PeriodKey) (core.PeriodKey, error) {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return fallback, nil
	}
	key, err := core.ParsePeriodKey(v)
	if err != nil {
		return "", &core.ValidationError{Field: name, Err: core.ErrInvalidPeriod}
	}
	return key, nil
}

// requireField reports a missing required field.
func requireField(field string) error {
	return &core.ValidationError{Field: field, Err: fmt.Errorf("%s is required", field)}
}
