package services

import (
	"context"
	"fmt"
	"io"

	"finhelper/internal/core"
	"finhelper/internal/history"
	"finhelper/internal/log"
	"finhelper/internal/spend"
	"finhelper/internal/storage"
	"finhelper/internal/transfer"
)

// Summary derives the budget view of key under the current categories.
func (s *FinanceService) Summary(key core.PeriodKey) spend.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return spend.Summarize(key, s.ledger.Get(key), s.catalog.All(), s.now())
}

// History returns one summary per stored month, oldest first. Series are
// cached per revision.
func (s *FinanceService) History() []history.PeriodSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.historyLocked()
}

func (s *FinanceService) historyLocked() []history.PeriodSummary {
	if series, ok := s.history.Get(s.revision); ok {
		return series
	}
	series := history.Aggregate(s.ledger.Periods(), s.catalog.All())
	s.history.Set(s.revision, series)
	return series
}

// Compare computes the deltas from month a to month b. Empty keys default to
// the two most recent stored months.
func (s *FinanceService) Compare(a, b core.PeriodKey) (history.Comparison, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a == "" || b == "" {
		da, db, ok := history.DefaultPair(s.ledger.Keys())
		if !ok {
			return history.Comparison{}, fmt.Errorf("compare months: no stored month: %w", core.ErrNotFound)
		}
		if a == "" {
			a = da
		}
		if b == "" {
			b = db
		}
	}

	series := s.historyLocked()
	from, ok := history.Find(series, a)
	if !ok {
		return history.Comparison{}, fmt.Errorf("compare month %s: %w", a, core.ErrNotFound)
	}
	to, ok := history.Find(series, b)
	if !ok {
		return history.Comparison{}, fmt.Errorf("compare month %s: %w", b, core.ErrNotFound)
	}
	return history.Compare(from, to, s.catalog.All()), nil
}

// Report builds the single-month export payload of key.
func (s *FinanceService) Report(key core.PeriodKey) transfer.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.ledger.Get(key)
	categories := s.catalog.All()
	return transfer.BuildReport(spend.Summarize(key, p, categories, s.now()), p, categories)
}

// Export writes the full backup to w.
func (s *FinanceService) Export(ctx context.Context, w io.Writer) error {
	s.mu.Lock()
	data := transfer.Data{
		Theme:           s.theme,
		UserName:        s.userName,
		CategoriesGoals: s.catalog.All(),
		MonthlyData:     s.ledger.Periods(),
		FinancialGoals:  s.goals.List(),
	}
	now := s.now()
	s.mu.Unlock()

	if err := transfer.Export(w, data, now); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Backup exported", log.FieldOperation, log.OpExport, "periods", len(data.MonthlyData))
	return nil
}

// ImportResult names the sections an import replaced.
type ImportResult struct {
	Version  string   `json:"version"`
	Sections []string `json:"sections"`
}

// Import decodes a backup and applies the sections it carries. A file that
// fails to decode changes nothing.
func (s *FinanceService) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	env, err := transfer.Import(r)
	if err != nil {
		return ImportResult{}, err
	}

	res := ImportResult{Version: env.Version, Sections: []string{}}
	err = s.mutate(ctx, func() (change, error) {
		d := env.Data
		if d.Theme != "" {
			s.theme = d.Theme
			res.Sections = append(res.Sections, storage.KeyTheme)
		}
		if d.UserName != "" {
			s.userName = d.UserName
			res.Sections = append(res.Sections, storage.KeyUserName)
		}
		if d.CategoriesGoals != nil {
			s.catalog.Replace(d.CategoriesGoals)
			res.Sections = append(res.Sections, storage.KeyCategoriesGoals)
		}
		if d.MonthlyData != nil {
			s.ledger.Replace(d.MonthlyData)
			res.Sections = append(res.Sections, storage.KeyMonthlyData)
		}
		if d.FinancialGoals != nil {
			s.goals.Replace(d.FinancialGoals)
			res.Sections = append(res.Sections, storage.KeyFinancialGoals)
		}
		return change{
			reason:  "import",
			periods: []core.PeriodKey{s.ledger.ActiveKey()},
			keys:    res.Sections,
		}, nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	s.logger.InfoContext(ctx, "Backup imported",
		log.FieldOperation, log.OpImport, "version", res.Version, "sections", res.Sections)
	return res, nil
}
