// Package transfer reads and writes the portable JSON backup and builds the
// single-month report handed to document exporters.
package transfer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"finhelper/internal/core"
)

const (
	CurrentVersion = "2.0.0"
	LegacyVersion  = "1.0.0"
)

// Data is the backed-up application state. On import a nil collection or an
// empty string means the section was absent and must not be applied.
type Data struct {
	Theme           string                         `json:"theme"`
	UserName        string                         `json:"userName"`
	CategoriesGoals []core.Category                `json:"categoriesGoals"`
	MonthlyData     map[core.PeriodKey]core.Period `json:"monthlyData"`
	FinancialGoals  []core.FinancialGoal           `json:"financialGoals"`
}

// Envelope is the versioned wrapper around Data.
type Envelope struct {
	Version    string `json:"version"`
	ExportDate string `json:"exportDate"`
	Data       Data   `json:"data"`
}

type rawEnvelope struct {
	Version    string          `json:"version"`
	ExportDate string          `json:"exportDate"`
	Data       json.RawMessage `json:"data"`
}

// ImportFormatError rejects a backup file before any state is touched.
type ImportFormatError struct {
	Reason string
	Err    error
}

func (e *ImportFormatError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *ImportFormatError) Unwrap() error {
	return e.Err
}

// Export writes data as an indented version 2.0.0 envelope.
func Export(w io.Writer, data Data, now time.Time) error {
	env := Envelope{
		Version:    CurrentVersion,
		ExportDate: now.UTC().Format(time.RFC3339Nano),
		Data:       data,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return nil
}

// Import reads a backup to completion and decodes it. Files from version
// 1.0.0 get empty investments and debts in every month; unknown versions
// are read as the current one.
func Import(r io.Reader) (Envelope, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return Envelope{}, &ImportFormatError{Reason: "read JSON file", Err: err}
	}

	var raw rawEnvelope
	if err := json.Unmarshal(body, &raw); err != nil {
		return Envelope{}, &ImportFormatError{Reason: "read JSON file", Err: err}
	}
	trimmed := bytes.TrimSpace(raw.Data)
	if raw.Version == "" || len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Envelope{}, &ImportFormatError{Reason: "invalid JSON file: missing version or data"}
	}

	env := Envelope{Version: raw.Version, ExportDate: raw.ExportDate}
	if err := json.Unmarshal(trimmed, &env.Data); err != nil {
		return Envelope{}, &ImportFormatError{Reason: "read JSON file", Err: err}
	}
	if env.Version == LegacyVersion {
		migrateV1(&env.Data)
	}
	return env, nil
}

// migrateV1 adds the investments and debts collections that version 1.0.0
// did not have.
func migrateV1(d *Data) {
	for k, p := range d.MonthlyData {
		if p.Investments == nil {
			p.Investments = []core.Investment{}
		}
		if p.Debts == nil {
			p.Debts = []core.Debt{}
		}
		d.MonthlyData[k] = p
	}
}
