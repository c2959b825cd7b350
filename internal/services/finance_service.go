package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"finhelper/internal/amqp"
	"finhelper/internal/budget"
	"finhelper/internal/cache"
	"finhelper/internal/core"
	"finhelper/internal/goals"
	"finhelper/internal/history"
	"finhelper/internal/ledger"
	"finhelper/internal/log"
	"finhelper/internal/spend"
	"finhelper/internal/storage"
)

// EventPublisher receives a message for every period a mutation touched.
type EventPublisher interface {
	PublishPeriodChanged(ctx context.Context, msg *amqp.PeriodChangedMessage) error
}

// FinanceService owns the application state and serializes every operation
// on it. Mutations refresh the affected month snapshots, persist the changed
// state keys and announce the change.
type FinanceService struct {
	mu sync.Mutex

	store     storage.Store
	publisher EventPublisher
	logger    *log.Logger
	now       func() time.Time

	theme    string
	userName string
	catalog  *budget.Catalog
	ledger   *ledger.Store
	goals    *goals.Tracker

	revision int64
	history  *cache.LRUCache[int64, []history.PeriodSummary]
}

type Option func(*FinanceService)

func WithPublisher(p EventPublisher) Option {
	return func(s *FinanceService) {
		s.publisher = p
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *FinanceService) {
		s.logger = l
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *FinanceService) {
		s.now = now
	}
}

// WithHistoryCache sizes the cache of aggregated history series.
func WithHistoryCache(size int, ttl time.Duration) Option {
	return func(s *FinanceService) {
		s.history = cache.NewLRUCache[int64, []history.PeriodSummary](size, ttl)
	}
}

// change lists what a mutation touched.
type change struct {
	reason  string
	periods []core.PeriodKey
	keys    []string
}

// NewFinanceService loads the persisted state from store. Unreadable keys are
// logged and replaced by their defaults.
func NewFinanceService(ctx context.Context, store storage.Store, opts ...Option) *FinanceService {
	s := &FinanceService{
		store: store,
		now:   time.Now,
		theme: "dark",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(log.DefaultConfig())
	}
	s.logger = s.logger.WithComponent(log.ComponentFinance)
	if s.history == nil {
		s.history = cache.NewLRUCache[int64, []history.PeriodSummary](32, 10*time.Minute)
	}
	s.load(ctx)
	return s
}

func (s *FinanceService) load(ctx context.Context) {
	var (
		categories []core.Category
		periods    map[core.PeriodKey]core.Period
		goalList   []core.FinancialGoal
		selected   string
	)
	readState(ctx, s, storage.KeyTheme, &s.theme)
	readState(ctx, s, storage.KeyUserName, &s.userName)
	readState(ctx, s, storage.KeyCategoriesGoals, &categories)
	readState(ctx, s, storage.KeyMonthlyData, &periods)
	readState(ctx, s, storage.KeyFinancialGoals, &goalList)
	readState(ctx, s, storage.KeySelectedMonth, &selected)

	var selectedAt time.Time
	if selected != "" {
		if t, err := time.Parse(time.RFC3339, selected); err == nil {
			selectedAt = t
		} else {
			s.storageLogger().Warn("Ignoring malformed selected month", log.FieldStateKey, storage.KeySelectedMonth, log.FieldError, err)
		}
	}

	s.catalog = budget.NewCatalog(categories)
	s.ledger = ledger.New(periods, selectedAt, ledger.WithClock(s.now))
	s.goals = goals.NewTracker(goalList, s.now)

	s.logger.Info("State loaded",
		log.FieldPeriod, s.ledger.ActiveKey().String(),
		"periods", len(s.ledger.Keys()),
		"categories", len(s.catalog.All()),
		"goals", len(s.goals.List()))
}

// readState decodes key into a fresh value and assigns it to dst only when
// the whole value decoded, so a corrupt key leaves dst at its default.
func readState[T any](ctx context.Context, s *FinanceService, key string, dst *T) {
	if s.store == nil {
		return
	}
	var v T
	ok, err := storage.GetJSON(ctx, s.store, key, &v)
	if err != nil {
		s.storageLogger().ErrorContext(ctx, "Failed to read state key", log.FieldStateKey, key, log.FieldError, err)
		return
	}
	if ok {
		*dst = v
	}
}

func (s *FinanceService) storageLogger() *log.Logger {
	return s.logger.WithComponent(log.ComponentStorage)
}

// mutate runs fn under the lock and commits its change. Events are published
// after the lock is released.
func (s *FinanceService) mutate(ctx context.Context, fn func() (change, error)) error {
	s.mu.Lock()
	ch, err := fn()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	msgs := s.commit(ctx, ch)
	s.mu.Unlock()

	s.publish(ctx, msgs)
	return nil
}

func (s *FinanceService) commit(ctx context.Context, ch change) []*amqp.PeriodChangedMessage {
	keys := ch.keys
	for _, key := range ch.periods {
		if s.refreshSnapshot(key) {
			keys = append(keys, storage.KeyMonthlyData)
		}
	}
	s.persist(ctx, keys...)
	s.revision++

	if s.publisher == nil {
		return nil
	}
	categories := s.catalog.All()
	msgs := make([]*amqp.PeriodChangedMessage, 0, len(ch.periods))
	for _, key := range unique(ch.periods) {
		sum := spend.Summarize(key, s.ledger.Get(key), categories, s.now())
		msg := amqp.NewPeriodChangedMessage(key.String(), s.revision, ch.reason)
		msg.Income = sum.Income.Float()
		msg.TotalExpenses = sum.TotalExpenses.Float()
		msg.Savings = sum.Savings.Float()
		msgs = append(msgs, msg)
	}
	return msgs
}

// refreshSnapshot freezes the resolved spend and category names of key. It
// writes only when they changed, and never materializes an absent month
// whose spend is all zero.
func (s *FinanceService) refreshSnapshot(key core.PeriodKey) bool {
	p := s.ledger.Get(key)
	spent, names := spend.Snapshot(p, s.catalog.All())
	if !s.ledger.Has(key) && allZero(spent) {
		return false
	}
	if !spend.SnapshotChanged(p, spent, names) {
		return false
	}
	s.ledger.SetSnapshot(key, spent, names)
	s.logger.Debug("Snapshot refreshed", log.FieldPeriod, key.String(), log.FieldOperation, log.OpSnapshot)
	return true
}

// persist writes each state key on its own. Failures are logged and the
// in-memory state stays authoritative.
func (s *FinanceService) persist(ctx context.Context, keys ...string) {
	if s.store == nil {
		return
	}
	for _, key := range unique(keys) {
		if err := storage.SetJSON(ctx, s.store, key, s.valueOf(key)); err != nil {
			s.storageLogger().ErrorContext(ctx, "Failed to persist state key",
				log.FieldStateKey, key, log.FieldOperation, log.OpPersist, log.FieldError, err)
		}
	}
}

func (s *FinanceService) valueOf(key string) any {
	switch key {
	case storage.KeyTheme:
		return s.theme
	case storage.KeyUserName:
		return s.userName
	case storage.KeySelectedMonth:
		return s.ledger.Selected().Format(time.RFC3339)
	case storage.KeyCategoriesGoals:
		return s.catalog.All()
	case storage.KeyMonthlyData:
		return s.ledger.Periods()
	case storage.KeyFinancialGoals:
		return s.goals.List()
	default:
		panic(fmt.Sprintf("unknown state key %q", key))
	}
}

func (s *FinanceService) publish(ctx context.Context, msgs []*amqp.PeriodChangedMessage) {
	for _, msg := range msgs {
		if err := s.publisher.PublishPeriodChanged(ctx, msg); err != nil {
			s.logger.WithComponent(log.ComponentAMQP).WarnContext(ctx, "Failed to publish period change",
				log.FieldPeriod, msg.Period, log.FieldRevision, msg.Revision, log.FieldError, err)
		}
	}
}

// Revision counts committed mutations since start.
func (s *FinanceService) Revision() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// HistoryCache exposes the history cache for periodic cleanup.
func (s *FinanceService) HistoryCache() cache.Cleaner {
	return s.history
}

func (s *FinanceService) HistoryStats() cache.Stats {
	return s.history.Stats()
}

// Ping checks the backing store.
func (s *FinanceService) Ping(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	return s.store.Ping(ctx)
}

func allZero(spent map[string]core.Money) bool {
	for _, v := range spent {
		if !v.IsZero() {
			return false
		}
	}
	return true
}

func unique[T comparable](items []T) []T {
	seen := make(map[T]bool, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		if !seen[it] {
			seen[it] = true
			out = append(out, it)
		}
	}
	return out
}
