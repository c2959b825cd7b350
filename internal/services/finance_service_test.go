package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"finhelper/internal/amqp"
	"finhelper/internal/budget"
	"finhelper/internal/core"
	"finhelper/internal/goals"
	"finhelper/internal/ledger"
	"finhelper/internal/log"
	"finhelper/internal/storage"
	"finhelper/internal/storage/memory"
	"finhelper/internal/transfer"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

type fakePublisher struct {
	mu   sync.Mutex
	msgs []*amqp.PeriodChangedMessage
	err  error
}

func (f *fakePublisher) PublishPeriodChanged(_ context.Context, msg *amqp.PeriodChangedMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	return f.err
}

func (f *fakePublisher) last() *amqp.PeriodChangedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.msgs) == 0 {
		return nil
	}
	return f.msgs[len(f.msgs)-1]
}

type failingStore struct{ *memory.Store }

func (f *failingStore) Set(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func quietLogger() *log.Logger {
	return log.New(log.Config{Output: io.Discard})
}

func newTestService(t *testing.T, store storage.Store, opts ...Option) (*FinanceService, *fakePublisher) {
	t.Helper()
	pub := &fakePublisher{}
	base := []Option{
		WithLogger(quietLogger()),
		WithClock(func() time.Time { return testNow }),
		WithPublisher(pub),
	}
	return NewFinanceService(context.Background(), store, append(base, opts...)...), pub
}

func storedPeriods(t *testing.T, store storage.Store) map[core.PeriodKey]core.Period {
	t.Helper()
	var periods map[core.PeriodKey]core.Period
	ok, err := storage.GetJSON(context.Background(), store, storage.KeyMonthlyData, &periods)
	if err != nil || !ok {
		t.Fatalf("monthlyData not stored: ok=%v err=%v", ok, err)
	}
	return periods
}

func TestNewFinanceServiceDefaults(t *testing.T) {
	svc, _ := newTestService(t, memory.New())
	st := svc.State()

	if st.Theme != "dark" {
		t.Errorf("theme = %q", st.Theme)
	}
	if st.ActiveMonth != "2024-03" || st.MonthLabel != "Mar/2024" {
		t.Errorf("active = %s %s", st.ActiveMonth, st.MonthLabel)
	}
	if len(st.Categories) != 6 {
		t.Errorf("expected 6 default categories, got %d", len(st.Categories))
	}
	if len(st.Months) != 0 {
		t.Errorf("expected no stored months, got %v", st.Months)
	}
}

func TestAddExpenseSnapshotsPersistsAndPublishes(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc, pub := newTestService(t, store)

	e, err := svc.AddExpense(ctx, ledger.ExpenseInput{
		CategoryID:  "metas",
		Amount:      core.Cents(5000),
		Description: "Reserva",
		Date:        core.NewDate(2024, 3, 10),
	})
	if err != nil {
		t.Fatalf("AddExpense() error = %v", err)
	}
	if !strings.HasPrefix(e.ID, "exp_") {
		t.Errorf("id = %q", e.ID)
	}

	p := storedPeriods(t, store)["2024-03"]
	if len(p.Expenses) != 1 {
		t.Fatalf("stored expenses = %d", len(p.Expenses))
	}
	if got := p.SnapshotSpent["metas"]; got != core.Cents(5000) {
		t.Errorf("snapshot metas = %v", got)
	}
	if got := p.SnapshotCategoryNames["metas"]; got != "Metas" {
		t.Errorf("snapshot name = %q", got)
	}

	msg := pub.last()
	if msg == nil || msg.Period != "2024-03" || msg.Reason != "expense-added" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if msg.TotalExpenses != 50 || msg.Revision != svc.Revision() {
		t.Errorf("message figures = %+v", msg)
	}
}

func TestAddExpenseFilesUnderItsOwnMonth(t *testing.T) {
	ctx := context.Background()
	svc, pub := newTestService(t, memory.New())

	if _, err := svc.AddExpense(ctx, ledger.ExpenseInput{
		CategoryID: "prazeres",
		Amount:     core.Cents(1200),
		Date:       core.NewDate(2024, 1, 5),
	}); err != nil {
		t.Fatal(err)
	}

	jan := svc.Period("2024-01")
	if len(jan.Expenses) != 1 || jan.SnapshotSpent["prazeres"] != core.Cents(1200) {
		t.Errorf("january = %+v", jan)
	}
	if len(svc.Period("2024-03").Expenses) != 0 {
		t.Errorf("active month should be untouched")
	}
	if pub.last().Period != "2024-01" {
		t.Errorf("published %s", pub.last().Period)
	}
}

func TestUpdateExpenseAcrossMonthsRefreshesBoth(t *testing.T) {
	ctx := context.Background()
	svc, pub := newTestService(t, memory.New())

	e, _ := svc.AddExpense(ctx, ledger.ExpenseInput{CategoryID: "metas", Amount: core.Cents(900), Date: core.NewDate(2024, 3, 2)})
	moved := core.NewDate(2024, 2, 20)
	if _, err := svc.UpdateExpense(ctx, e.ID, ledger.ExpensePatch{Date: &moved}); err != nil {
		t.Fatal(err)
	}

	if got := svc.Period("2024-03").SnapshotSpent["metas"]; !got.IsZero() {
		t.Errorf("march snapshot = %v", got)
	}
	if got := svc.Period("2024-02").SnapshotSpent["metas"]; got != core.Cents(900) {
		t.Errorf("february snapshot = %v", got)
	}
	if n := len(pub.msgs); n != 3 {
		t.Errorf("expected 3 messages, got %d", n)
	}

	if _, err := svc.UpdateExpense(ctx, "exp_missing", ledger.ExpensePatch{}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown id error = %v", err)
	}
}

func TestUpdateCategorySpent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, memory.New())

	if err := svc.UpdateCategorySpent(ctx, "conforto", core.Cents(30000)); err != nil {
		t.Fatal(err)
	}
	if got := svc.Summary("2024-03").CategorySpent["conforto"]; got != core.Cents(30000) {
		t.Errorf("resolved conforto = %v", got)
	}

	if _, err := svc.AddSubcategory(ctx, "custos-fixos", "Aluguel", core.Cents(150000)); err != nil {
		t.Fatal(err)
	}
	err := svc.UpdateCategorySpent(ctx, "custos-fixos", core.Cents(100))
	if !errors.Is(err, core.ErrCategoryHasSubcategories) {
		t.Errorf("error = %v, want ErrCategoryHasSubcategories", err)
	}
	err = svc.UpdateCategorySpent(ctx, core.FreedomCategoryID, core.Cents(100))
	if !errors.Is(err, core.ErrCategoryTracksInvestments) {
		t.Errorf("error = %v, want ErrCategoryTracksInvestments", err)
	}
	if _, ok := svc.Period("2024-03").ManualCategorySpent[core.FreedomCategoryID]; ok {
		t.Error("refused override was recorded")
	}
	if err := svc.UpdateCategorySpent(ctx, "ghost", core.Cents(100)); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown category error = %v", err)
	}
}

func TestDeleteCategoryGuards(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, memory.New())

	if _, err := svc.AddExpense(ctx, ledger.ExpenseInput{CategoryID: "prazeres", Amount: core.Cents(100), Date: core.NewDate(2024, 3, 1)}); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteCategory(ctx, "prazeres"); !errors.Is(err, core.ErrCategoryHasHistory) {
		t.Errorf("error = %v, want ErrCategoryHasHistory", err)
	}

	if _, err := svc.AddSubcategory(ctx, "conhecimento", "Curso", core.Cents(4000)); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteCategory(ctx, "conhecimento"); !errors.Is(err, core.ErrCategoryHasHistory) {
		t.Errorf("subcategory-backed spend counts as history, got %v", err)
	}
	if err := svc.DeleteCategory(ctx, "metas"); err != nil {
		t.Errorf("DeleteCategory(metas) error = %v", err)
	}
	if got := len(svc.Categories()); got != 5 {
		t.Errorf("categories = %d", got)
	}
	if err := svc.DeleteCategory(ctx, "metas"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete error = %v", err)
	}
}

func TestCategoryRenameKeepsStoredMonthNames(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, memory.New())

	if _, err := svc.AddExpense(ctx, ledger.ExpenseInput{CategoryID: "metas", Amount: core.Cents(700), Date: core.NewDate(2024, 1, 9)}); err != nil {
		t.Fatal(err)
	}
	name := "Objetivos"
	if _, err := svc.UpdateCategory(ctx, "metas", budget.CategoryPatch{Name: &name}); err != nil {
		t.Fatal(err)
	}

	series := svc.History()
	if len(series) != 1 {
		t.Fatalf("history = %d months, active month must not be materialized", len(series))
	}
	if got := series[0].CategoryNames["metas"]; got != "Metas" {
		t.Errorf("historical name = %q", got)
	}
	if got := series[0].CategorySpent["metas"]; got != core.Cents(700) {
		t.Errorf("historical spend = %v", got)
	}
}

func TestRedistributeAndReset(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, memory.New())

	cats, err := svc.Redistribute(ctx, 0, 50)
	if err != nil {
		t.Fatal(err)
	}
	var total float64
	for _, c := range cats {
		total += c.Percentage
	}
	if cats[0].Percentage != 50 || total != 100 {
		t.Errorf("first = %v total = %v", cats[0].Percentage, total)
	}

	if _, err := svc.Redistribute(ctx, 42, 10); !errors.Is(err, core.ErrCategoryNotFound) {
		t.Errorf("bad index error = %v", err)
	}

	cats, err = svc.ResetCategories(ctx)
	if err != nil || cats[0].Percentage != 35 {
		t.Errorf("reset = %v, %v", cats[0].Percentage, err)
	}

	check := svc.ValidateBudgetTotal(10, "")
	if check.Valid || check.Total != 110 || check.Available != 0 {
		t.Errorf("budget check = %+v", check)
	}
}

func TestStateReloadsFromStore(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc, _ := newTestService(t, store)

	if _, err := svc.ChangeMonth(ctx, -1); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateMonthlyIncome(ctx, core.Cents(500000)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddGoal(ctx, goals.Input{Name: "Viagem", TargetAmount: core.Cents(100000)}); err != nil {
		t.Fatal(err)
	}
	theme := "light"
	if _, err := svc.SetProfile(ctx, &theme, nil); err != nil {
		t.Fatal(err)
	}

	reloaded, _ := newTestService(t, store)
	st := reloaded.State()
	if st.ActiveMonth != "2024-02" || st.Theme != "light" {
		t.Errorf("reloaded state = %s %s", st.ActiveMonth, st.Theme)
	}
	if got := reloaded.Period("2024-02").Income; got != core.Cents(500000) {
		t.Errorf("income = %v", got)
	}
	if got := len(reloaded.Goals()); got != 1 {
		t.Errorf("goals = %d", got)
	}
}

func TestCorruptStateKeysFallBackToDefaults(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	corrupt := map[string]string{
		storage.KeyTheme:           `"light"`,
		storage.KeyCategoriesGoals: `[{"id":"a","name":"A","percentage":60},{"id":"b","name":"B","percentage":"forty"}]`,
		storage.KeyMonthlyData:     `{"2024-01":{"income":1000},"2024-02":{"income":"lots"}}`,
		storage.KeyFinancialGoals:  `[{"id":"g","name":"Car","targetAmount":100},{"id":"h","name":7}]`,
	}
	for key, raw := range corrupt {
		if err := store.Set(ctx, key, []byte(raw)); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}

	svc, _ := newTestService(t, store)
	st := svc.State()

	if st.Theme != "light" {
		t.Errorf("theme = %q, want the stored value", st.Theme)
	}
	if len(st.Categories) != 6 || st.Categories[0].ID != "custos-fixos" {
		t.Errorf("categories = %v, want the defaults", st.Categories)
	}
	if len(st.Months) != 0 {
		t.Errorf("months = %v, want none", st.Months)
	}
	if got := svc.Goals(); len(got) != 0 {
		t.Errorf("goals = %v, want none", got)
	}
}

func TestStorageFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, &failingStore{Store: memory.New()})

	if _, err := svc.AddInvestment(ctx, ledger.InvestmentInput{Name: "Tesouro", Amount: core.Cents(1000)}); err != nil {
		t.Fatalf("AddInvestment() error = %v", err)
	}
	if got := svc.Summary("2024-03").TotalInvestments; got != core.Cents(1000) {
		t.Errorf("in-memory investments = %v", got)
	}
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	ctx := context.Background()
	svc, pub := newTestService(t, memory.New())
	pub.err = amqp.ErrCircuitOpen

	if _, err := svc.UpdateMonthlyIncome(ctx, core.Cents(100)); err != nil {
		t.Fatalf("error = %v", err)
	}
	if pub.last() == nil {
		t.Fatal("expected a publish attempt")
	}
}

func TestDebtsAndInvestments(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, memory.New())

	d, err := svc.AddDebt(ctx, ledger.DebtInput{Name: "Cartão", Amount: core.Cents(20000), DueDate: core.NewDate(2024, 3, 1)})
	if err != nil {
		t.Fatal(err)
	}
	if got := svc.Summary("2024-03").OverdueDebts; got != 1 {
		t.Errorf("overdue = %d", got)
	}
	if d, err = svc.ToggleDebtPaid(ctx, d.ID); err != nil || !d.IsPaid {
		t.Fatalf("toggle = %+v, %v", d, err)
	}
	sum := svc.Summary("2024-03")
	if sum.TotalPaidDebts != core.Cents(20000) || sum.OverdueDebts != 0 {
		t.Errorf("summary = %+v", sum)
	}
	if err := svc.RemoveDebt(ctx, d.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.RemoveDebt(ctx, d.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second remove error = %v", err)
	}

	inv, _ := svc.AddInvestment(ctx, ledger.InvestmentInput{Name: "CDB", Amount: core.Cents(300)})
	amount := core.Cents(450)
	if inv, err = svc.UpdateInvestment(ctx, inv.ID, ledger.InvestmentPatch{Amount: &amount}); err != nil || inv.Amount != amount {
		t.Fatalf("update investment = %+v, %v", inv, err)
	}
	if err := svc.RemoveInvestment(ctx, inv.ID); err != nil {
		t.Fatal(err)
	}
}

func TestResetCurrent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, memory.New())

	_, _ = svc.UpdateMonthlyIncome(ctx, core.Cents(1000))
	_ = svc.UpdateCategorySpent(ctx, "metas", core.Cents(200))
	if err := svc.ResetCurrent(ctx); err != nil {
		t.Fatal(err)
	}
	p := svc.Period("2024-03")
	if !p.Income.IsZero() || len(p.ManualCategorySpent) != 0 {
		t.Errorf("period after reset = %+v", p)
	}
}

func TestHistoryCachedPerRevision(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, memory.New(), WithHistoryCache(4, time.Hour))

	_, _ = svc.UpdateMonthlyIncome(ctx, core.Cents(1000))
	first := svc.History()
	_ = svc.History()
	if st := svc.history.Stats(); st.Hits != 1 || st.Misses != 1 {
		t.Errorf("cache stats = %+v", st)
	}

	_, _ = svc.UpdateMonthlyIncome(ctx, core.Cents(2000))
	second := svc.History()
	if first[0].Income == second[0].Income {
		t.Errorf("history not refreshed after mutation")
	}
}

func TestCompare(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, memory.New())

	if _, err := svc.Compare("", ""); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("empty ledger error = %v", err)
	}

	_, _ = svc.SelectMonth(ctx, "2024-01")
	_, _ = svc.UpdateMonthlyIncome(ctx, core.Cents(100000))
	_ = svc.UpdateCategorySpent(ctx, "metas", core.Cents(10000))
	_, _ = svc.SelectMonth(ctx, "2024-02")
	_, _ = svc.UpdateMonthlyIncome(ctx, core.Cents(100000))
	_ = svc.UpdateCategorySpent(ctx, "metas", core.Cents(20000))

	cmp, err := svc.Compare("", "")
	if err != nil {
		t.Fatal(err)
	}
	if cmp.From != "2024-01" || cmp.To != "2024-02" {
		t.Errorf("pair = %s..%s", cmp.From, cmp.To)
	}
	if !cmp.TotalExpenses.IsPositive || cmp.TotalExpenses.Percent != 100 {
		t.Errorf("expenses delta = %+v", cmp.TotalExpenses)
	}
	if _, err := svc.Compare("2024-01", "2023-12"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown month error = %v", err)
	}
}

func TestGoals(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, memory.New())

	g, err := svc.AddGoal(ctx, goals.Input{Name: "Carro", TargetAmount: core.Cents(1000), CurrentAmount: core.Cents(250)})
	if err != nil || g.Progress != 25 {
		t.Fatalf("add goal = %+v, %v", g, err)
	}
	current := core.Cents(1000)
	if g, err = svc.UpdateGoal(ctx, g.ID, goals.Patch{CurrentAmount: &current}); err != nil || !g.Completed {
		t.Fatalf("update goal = %+v, %v", g, err)
	}
	if err := svc.DeleteGoal(ctx, g.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateGoal(ctx, g.ID, goals.Patch{}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("update deleted goal error = %v", err)
	}
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	src, _ := newTestService(t, memory.New())
	_, _ = src.AddExpense(ctx, ledger.ExpenseInput{CategoryID: "metas", Amount: core.Cents(800), Date: core.NewDate(2024, 3, 3)})
	name := "Ana"
	_, _ = src.SetProfile(ctx, nil, &name)

	var buf strings.Builder
	if err := src.Export(ctx, &buf); err != nil {
		t.Fatal(err)
	}

	dst, _ := newTestService(t, memory.New())
	res, err := dst.Import(ctx, strings.NewReader(buf.String()))
	if err != nil {
		t.Fatal(err)
	}
	if res.Version != transfer.CurrentVersion || len(res.Sections) != 5 {
		t.Errorf("import result = %+v", res)
	}
	if dst.State().UserName != "Ana" || len(dst.Period("2024-03").Expenses) != 1 {
		t.Errorf("imported state = %+v", dst.State())
	}
}

func TestImportRejectsWithoutChanges(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, memory.New())
	_, _ = svc.UpdateMonthlyIncome(ctx, core.Cents(1234))
	before := svc.Revision()

	_, err := svc.Import(ctx, strings.NewReader(`{"version":"2.0.0"}`))
	var fmtErr *transfer.ImportFormatError
	if !errors.As(err, &fmtErr) {
		t.Fatalf("error = %v, want ImportFormatError", err)
	}
	if svc.Revision() != before || svc.Period("2024-03").Income != core.Cents(1234) {
		t.Errorf("state changed by a rejected import")
	}
}

func TestImportAppliesOnlyPresentSections(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, memory.New())
	_, _ = svc.AddCategory(ctx, budget.CategoryInput{Name: "Pets", Percentage: 0})

	legacy := `{"version":"1.0.0","data":{"monthlyData":{"2023-12":{"income":1000,"expenses":[]}}}}`
	res, err := svc.Import(ctx, strings.NewReader(legacy))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Sections) != 1 || res.Sections[0] != storage.KeyMonthlyData {
		t.Errorf("sections = %v", res.Sections)
	}
	if got := len(svc.Categories()); got != 7 {
		t.Errorf("categories replaced: %d", got)
	}
	p := svc.Period("2023-12")
	if p.Investments == nil || p.Debts == nil || p.Income != core.Cents(100000) {
		t.Errorf("legacy period = %+v", p)
	}
}
