package scheduler

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Newsdesk/internal/domain"
	"github.com/shaiso/Newsdesk/internal/repo"
)

// --- fakeClock ---

type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	timers  []*fakeTimer
	created int
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now.UTC()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTimer(d time.Duration) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{clock: c, deadline: c.now.Add(d), ch: make(chan time.Time, 1)}
	c.created++
	if d <= 0 {
		t.fired = true
		t.ch <- c.now
		return t
	}
	c.timers = append(c.timers, t)
	return t
}

// Advance сдвигает время и срабатывает все истёкшие таймеры.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
	pending := c.timers[:0]
	for _, t := range c.timers {
		if !t.deadline.After(c.now) {
			t.fired = true
			t.ch <- c.now
			continue
		}
		pending = append(pending, t)
	}
	c.timers = pending
}

func (c *fakeClock) Created() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.created
}

// NextDeadline возвращает ближайший ожидающий таймер.
func (c *fakeClock) NextDeadline() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.timers) == 0 {
		return time.Time{}, false
	}
	sort.Slice(c.timers, func(i, j int) bool { return c.timers[i].deadline.Before(c.timers[j].deadline) })
	return c.timers[0].deadline, true
}

// WaitCreated ждёт, пока цикл создаст n-й таймер, то есть вернётся в ожидание.
func (c *fakeClock) WaitCreated(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return c.Created() >= n }, 2*time.Second, time.Millisecond,
		"loop did not create timer #%d", n)
}

type fakeTimer struct {
	clock    *fakeClock
	deadline time.Time
	ch       chan time.Time
	fired    bool
}

func (t *fakeTimer) C() <-chan time.Time { return t.ch }

func (t *fakeTimer) Stop() bool {
	c := t.clock
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, other := range c.timers {
		if other == t {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			break
		}
	}
	return !t.fired
}

// --- fakeArticles ---

// fakeArticles — in-memory Content Store с compare-and-set как в Postgres.
type fakeArticles struct {
	mu        sync.Mutex
	articles  map[uuid.UUID]*domain.Article
	casWins   map[uuid.UUID]int
	listCalls int

	failList    error
	failPublish error
	listGate    chan struct{}
	onList      func()
	blockOnCtx  bool
}

func newFakeArticles(articles ...domain.Article) *fakeArticles {
	f := &fakeArticles{
		articles: make(map[uuid.UUID]*domain.Article),
		casWins:  make(map[uuid.UUID]int),
	}
	for i := range articles {
		a := articles[i]
		f.articles[a.ID] = &a
	}
	return f
}

func (f *fakeArticles) ListScheduled(ctx context.Context, filter repo.ScheduledFilter) ([]domain.Article, error) {
	f.mu.Lock()
	f.listCalls++
	gate, hook, fail, block := f.listGate, f.onList, f.failList, f.blockOnCtx
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if gate != nil {
		<-gate
	}
	if hook != nil {
		hook()
	}
	if fail != nil {
		return nil, fail
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.Article
	for _, a := range f.articles {
		if !a.IsPending() {
			continue
		}
		if filter.AfterID != uuid.Nil && bytes.Compare(a.ID[:], filter.AfterID[:]) <= 0 {
			continue
		}
		out = append(out, *a)
	}
	// как ORDER BY id в Postgres: uuid сравнивается побайтно
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0 })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeArticles) PublishIfPending(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failPublish != nil {
		return false, f.failPublish
	}

	a, ok := f.articles[id]
	if !ok || a.IsPublished || !a.IsScheduled {
		return false, nil
	}
	a.MarkPublished(at)
	f.casWins[id]++
	return true, nil
}

func (f *fakeArticles) Get(id uuid.UUID) domain.Article {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.articles[id]
}

func (f *fakeArticles) ListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func (f *fakeArticles) setGate(gate chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listGate = gate
}

func (f *fakeArticles) setOnList(hook func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onList = hook
}

// --- fakeSettings ---

type fakeSettings struct {
	mu sync.Mutex
	s  domain.SchedulerSettings
}

func newFakeSettings(enabled bool, freq int) *fakeSettings {
	return &fakeSettings{s: domain.SchedulerSettings{IsEnabled: enabled, CheckFrequencyMinutes: freq}}
}

func (f *fakeSettings) Get(_ context.Context) (domain.SchedulerSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.s, nil
}

func (f *fakeSettings) GetOrCreate(ctx context.Context) (domain.SchedulerSettings, error) {
	return f.Get(ctx)
}

func (f *fakeSettings) Save(_ context.Context, s domain.SchedulerSettings) (domain.SchedulerSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.s = s
	return s, nil
}

func (f *fakeSettings) set(enabled bool, freq int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.s = domain.SchedulerSettings{IsEnabled: enabled, CheckFrequencyMinutes: freq}
}

// --- fakePublisher ---

type fakePublisher struct {
	mu     sync.Mutex
	events map[uuid.UUID]int
	fail   error
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{events: make(map[uuid.UUID]int)}
}

func (p *fakePublisher) PublishArticlePublished(_ context.Context, a *domain.Article, _ domain.RunTrigger) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events[a.ID]++
	return p.fail
}

func (p *fakePublisher) Count(id uuid.UUID) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[id]
}

func (p *fakePublisher) Total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, n := range p.events {
		total += n
	}
	return total
}

// --- helpers ---

func scheduledArticle(title string, at time.Time) domain.Article {
	utc := at.UTC()
	return domain.Article{
		ID:                 uuid.New(),
		Title:              title,
		IsScheduled:        true,
		ScheduledPublishAt: &utc,
	}
}

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}
