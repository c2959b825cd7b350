package core

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DebtPaid    DebtStatus = "paid"
	DebtOverdue DebtStatus = "overdue"
	DebtPending DebtStatus = "pending"
)

const maxDescriptionLen = 200

// FreedomCategoryID is the "financial freedom" category. Its budget line
// shows the month's investments and takes no manual spend.
const FreedomCategoryID = "liberdade"

type (
	DebtStatus string

	// Date is a calendar instant that decodes both "2006-01-02" and RFC 3339.
	Date struct {
		time.Time
	}

	Subcategory struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Value Money  `json:"value"`
	}

	Category struct {
		ID            string        `json:"id"`
		Name          string        `json:"name"`
		Color         string        `json:"color"`
		Percentage    float64       `json:"percentage"`
		Subcategories []Subcategory `json:"subcategories"`
		IsArchived    bool          `json:"isArchived"`
		IsCustom      bool          `json:"isCustom"`
	}

	Expense struct {
		ID          string `json:"id"`
		CategoryID  string `json:"categoryId"`
		Amount      Money  `json:"amount"`
		Description string `json:"description"`
		Date        Date   `json:"date"`
		CreatedAt   Date   `json:"createdAt"`
	}

	Investment struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Amount    Money  `json:"amount"`
		CreatedAt Date   `json:"createdAt"`
	}

	Debt struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Amount    Money  `json:"amount"`
		DueDate   Date   `json:"dueDate"`
		IsPaid    bool   `json:"isPaid"`
		CreatedAt Date   `json:"createdAt"`
	}

	// Period is one month of the ledger.
	Period struct {
		Income                Money             `json:"income"`
		Expenses              []Expense         `json:"expenses"`
		Investments           []Investment      `json:"investments"`
		Debts                 []Debt            `json:"debts"`
		ManualCategorySpent   map[string]Money  `json:"manualCategorySpent"`
		SnapshotSpent         map[string]Money  `json:"snapshotSpent,omitempty"`
		SnapshotCategoryNames map[string]string `json:"snapshotCategoryNames,omitempty"`
	}

	FinancialGoal struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		TargetAmount  Money  `json:"targetAmount"`
		CurrentAmount Money  `json:"currentAmount"`
		CreatedAt     Date   `json:"createdAt"`
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf wraps t.
func DateOf(t time.Time) Date {
	return Date{Time: t}
}

// ParseDate accepts "2006-01-02" or RFC 3339 (with or without fractional seconds).
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Date{Time: t}, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return Date{Time: t}, nil
	}
	return Date{}, ErrInvalidDate
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// IsEmpty returns true if the date is zero (for optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// MarshalJSON keeps the offset the date was given with, so the month it is
// filed under survives a round trip.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(strconv.Quote(d.Format(time.RFC3339Nano))), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("decode date: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("decode date %q: %w", s, err)
	}
	*d = parsed
	return nil
}

// TracksInvestments reports whether the budget line of c is fed by the
// period's investments.
func (c Category) TracksInvestments() bool {
	return c.ID == FreedomCategoryID
}

// HasSubcategories reports whether spend is derived from subcategory values.
func (c Category) HasSubcategories() bool {
	return len(c.Subcategories) > 0
}

// SubcategoryTotal sums the subcategory values.
func (c Category) SubcategoryTotal() Money {
	var total Money
	for _, s := range c.Subcategories {
		total = total.Add(s.Value)
	}
	return total
}

// HasSubcategoryValue reports whether any subcategory holds a nonzero amount.
func (c Category) HasSubcategoryValue() bool {
	for _, s := range c.Subcategories {
		if !s.Value.IsZero() {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with c.
func (c Category) Clone() Category {
	out := c
	out.Subcategories = append([]Subcategory{}, c.Subcategories...)
	return out
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "name", Err: ErrEmptyName}
	}
	if c.Percentage < 0 || c.Percentage > 100 {
		return &ValidationError{Field: "percentage", Err: ErrInvalidPercentage}
	}
	return nil
}

func (s Subcategory) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return &ValidationError{Field: "name", Err: ErrEmptyName}
	}
	if s.Value.IsNegative() {
		return &ValidationError{Field: "value", Err: ErrInvalidAmount}
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.CategoryID) == "" {
		return &ValidationError{Field: "categoryId", Err: ErrEmptyCategory}
	}
	if e.Amount.Cents <= 0 {
		return &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	if len(e.Description) > maxDescriptionLen {
		return &ValidationError{Field: "description", Err: ErrDescriptionTooLong}
	}
	return nil
}

func (i Investment) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return &ValidationError{Field: "name", Err: ErrEmptyName}
	}
	if i.Amount.Cents <= 0 {
		return &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	return nil
}

func (d Debt) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return &ValidationError{Field: "name", Err: ErrEmptyName}
	}
	if d.Amount.Cents <= 0 {
		return &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	if d.DueDate.IsEmpty() {
		return &ValidationError{Field: "dueDate", Err: ErrInvalidDate}
	}
	return nil
}

// Status classifies the debt at now.
func (d Debt) Status(now time.Time) DebtStatus {
	switch {
	case d.IsPaid:
		return DebtPaid
	case !d.DueDate.IsEmpty() && d.DueDate.Before(now):
		return DebtOverdue
	default:
		return DebtPending
	}
}

// Validate applies the goal form rules: a positive target and a non-negative
// current amount. The goals tracker itself stores whatever it is given.
func (g FinancialGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return &ValidationError{Field: "name", Err: ErrEmptyName}
	}
	if g.TargetAmount.Cents <= 0 {
		return &ValidationError{Field: "targetAmount", Err: ErrInvalidAmount}
	}
	if g.CurrentAmount.IsNegative() {
		return &ValidationError{Field: "currentAmount", Err: ErrInvalidAmount}
	}
	return nil
}

// Progress is current/target as a percentage, capped at 100.
func (g FinancialGoal) Progress() float64 {
	if g.TargetAmount.Cents <= 0 {
		return 0
	}
	p := Ratio(g.CurrentAmount, g.TargetAmount)
	if p > 100 {
		return 100
	}
	return p
}

// Completed reports whether the target has been reached.
func (g FinancialGoal) Completed() bool {
	return g.CurrentAmount.Cents >= g.TargetAmount.Cents
}

// NewPeriod returns the default entry for a month with no data.
func NewPeriod() Period {
	return Period{
		Expenses:            []Expense{},
		Investments:         []Investment{},
		Debts:               []Debt{},
		ManualCategorySpent: map[string]Money{},
	}
}

// Normalize replaces nil collections with empty ones.
func (p Period) Normalize() Period {
	if p.Expenses == nil {
		p.Expenses = []Expense{}
	}
	if p.Investments == nil {
		p.Investments = []Investment{}
	}
	if p.Debts == nil {
		p.Debts = []Debt{}
	}
	if p.ManualCategorySpent == nil {
		p.ManualCategorySpent = map[string]Money{}
	}
	return p
}

// Clone returns a deep copy so callers can build a replacement entry.
func (p Period) Clone() Period {
	out := Period{
		Income:      p.Income,
		Expenses:    append([]Expense{}, p.Expenses...),
		Investments: append([]Investment{}, p.Investments...),
		Debts:       append([]Debt{}, p.Debts...),
	}
	out.ManualCategorySpent = make(map[string]Money, len(p.ManualCategorySpent))
	for k, v := range p.ManualCategorySpent {
		out.ManualCategorySpent[k] = v
	}
	if p.SnapshotSpent != nil {
		out.SnapshotSpent = make(map[string]Money, len(p.SnapshotSpent))
		for k, v := range p.SnapshotSpent {
			out.SnapshotSpent[k] = v
		}
	}
	if p.SnapshotCategoryNames != nil {
		out.SnapshotCategoryNames = make(map[string]string, len(p.SnapshotCategoryNames))
		for k, v := range p.SnapshotCategoryNames {
			out.SnapshotCategoryNames[k] = v
		}
	}
	return out
}

// ExpenseTotal sums the expense transactions of one category.
func (p Period) ExpenseTotal(categoryID string) Money {
	var total Money
	for _, e := range p.Expenses {
		if e.CategoryID == categoryID {
			total = total.Add(e.Amount)
		}
	}
	return total
}

func (p Period) TotalInvestments() Money {
	var total Money
	for _, i := range p.Investments {
		total = total.Add(i.Amount)
	}
	return total
}

func (p Period) TotalDebts() Money {
	var total Money
	for _, d := range p.Debts {
		total = total.Add(d.Amount)
	}
	return total
}

// DebtTotals splits the debt total into paid and unpaid amounts.
func (p Period) DebtTotals() (paid, unpaid Money) {
	for _, d := range p.Debts {
		if d.IsPaid {
			paid = paid.Add(d.Amount)
		} else {
			unpaid = unpaid.Add(d.Amount)
		}
	}
	return paid, unpaid
}
