package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"ai-newsletter/internal/ai"
	"ai-newsletter/internal/model"
	"ai-newsletter/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	subs      []model.Subscriber
	logged    []model.RunRecord
	listErr   error
	appendErr error
}

func (f *fakeStore) ListActiveSubscribers(ctx context.Context) ([]model.Subscriber, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]model.Subscriber, 0, len(f.subs))
	for _, s := range f.subs {
		if s.Active {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) AppendRunLog(ctx context.Context, records []model.RunRecord) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.logged = append(f.logged, records...)
	return nil
}

func (f *fakeStore) CountRunsForDay(ctx context.Context, day time.Time) (int64, error) {
	want := day.UTC().Format("2006-01-02")
	var n int64
	for _, r := range f.logged {
		if r.SentAt.UTC().Format("2006-01-02") == want {
			n++
		}
	}
	return n, nil
}

type fakeGenerator struct {
	configured bool
	calls      [][]string
}

func (f *fakeGenerator) IsConfigured() bool { return f.configured }

func (f *fakeGenerator) GenerateNewsletter(ctx context.Context, topics []string) model.Content {
	f.calls = append(f.calls, topics)
	source := model.SourceFallback
	if f.configured {
		source = model.SourcePrimary
	}
	sections := make([]model.Section, 0, len(topics))
	for _, t := range topics {
		sections = append(sections, model.Section{
			Topic:   t,
			Content: fmt.Sprintf("news about %s", t),
			Source:  source,
		})
	}
	return model.Content{
		Subject:     "Weekly AI Newsletter - Test",
		GeneratedAt: time.Now().UTC(),
		Sections:    sections,
		TopicsCount: len(topics),
	}
}

type dispatchCall struct {
	subject string
	html    string
	listID  int
}

type fakeDispatcher struct {
	configured bool
	err        error
	calls      []dispatchCall
}

func (f *fakeDispatcher) IsConfigured(ctx context.Context) bool { return f.configured }

func (f *fakeDispatcher) Dispatch(ctx context.Context, subject, html string, listID int) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, dispatchCall{subject: subject, html: html, listID: listID})
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func activeSub(email string, topics ...string) model.Subscriber {
	return model.Subscriber{Email: email, Topics: topics, Active: true, CreatedAt: time.Now().UTC()}
}

// Wednesday 2026-08-26 00:00 UTC; the next Monday 09:00 firing is 2026-08-31.
var testNow = time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)

func newTestScheduler(store Store, gen ai.Generator, mailer Dispatcher, clock func() time.Time) *Scheduler {
	if clock == nil {
		clock = func() time.Time { return testNow }
	}
	return New(store, gen, mailer, Options{
		CronSpec:     "0 9 * * 1",
		PollInterval: time.Hour, // keep the background ticker out of the way
		ListID:       1,
		Logger:       quietLogger(),
		Clock:        clock,
	})
}

func TestStartTwiceReportsAlreadyRunning(t *testing.T) {
	s := newTestScheduler(&fakeStore{}, &fakeGenerator{}, nil, nil)
	require.NoError(t, s.Start())
	defer s.Stop()

	err := s.Start()
	require.ErrorIs(t, err, ErrAlreadyRunning)

	st := s.Status()
	assert.True(t, st.Running)
	assert.Equal(t, 1, st.ScheduledJobs)
}

func TestStopWhenStoppedReportsNotRunning(t *testing.T) {
	s := newTestScheduler(&fakeStore{}, &fakeGenerator{}, nil, nil)
	require.ErrorIs(t, s.Stop(), ErrNotRunning)
	assert.False(t, s.Status().Running)
}

func TestStartComputesNextWeeklyFiring(t *testing.T) {
	s := newTestScheduler(&fakeStore{}, &fakeGenerator{}, nil, nil)
	require.NoError(t, s.Start())
	defer s.Stop()

	st := s.Status()
	require.NotNil(t, st.NextRun)
	assert.Equal(t, time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC), st.NextRun.UTC())
	assert.Equal(t, 1, st.ScheduledJobs)
}

func TestStopClearsScheduleState(t *testing.T) {
	s := newTestScheduler(&fakeStore{}, &fakeGenerator{}, nil, nil)
	require.NoError(t, s.Start())
	require.NoError(t, s.Stop())

	st := s.Status()
	assert.False(t, st.Running)
	assert.Nil(t, st.NextRun)
	assert.Equal(t, 0, st.ScheduledJobs)
}

func TestManualRunWithNoSubscribers(t *testing.T) {
	store := &fakeStore{}
	gen := &fakeGenerator{configured: true}
	s := newTestScheduler(store, gen, nil, nil)

	rep, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, rep.NewslettersGenerated)
	assert.Empty(t, gen.calls, "no provider calls expected for zero subscribers")
	assert.Empty(t, store.logged)

	st := s.Status()
	require.NotNil(t, st.LastRun, "manual run records lastRun even when stopped")
}

func TestPassDeduplicatesByTopicSet(t *testing.T) {
	store := &fakeStore{subs: []model.Subscriber{
		activeSub("a@example.com", "A", "B"),
		activeSub("b@example.com", "A", "B"),
		activeSub("c@example.com", "C"),
	}}
	gen := &fakeGenerator{configured: true}
	s := newTestScheduler(store, gen, nil, nil)

	rep, err := s.RunNow(context.Background())
	require.NoError(t, err)

	assert.Len(t, gen.calls, 2, "one provider call per unique topic set")
	assert.Len(t, store.logged, 3, "one run-log row per subscriber")
	assert.Equal(t, 3, rep.NewslettersGenerated)
	assert.Equal(t, 2, rep.UniqueContentGenerated)
	assert.Equal(t, 3, rep.SubscribersReached)
}

func TestTopicOrderSplitsGroups(t *testing.T) {
	// ["A","B"] and ["B","A"] serialize differently and are generated twice.
	store := &fakeStore{subs: []model.Subscriber{
		activeSub("a@example.com", "A", "B"),
		activeSub("b@example.com", "B", "A"),
	}}
	gen := &fakeGenerator{configured: true}
	s := newTestScheduler(store, gen, nil, nil)

	rep, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Len(t, gen.calls, 2)
	assert.Equal(t, 2, rep.UniqueContentGenerated)
}

func TestGroupMembersShareContent(t *testing.T) {
	store := &fakeStore{subs: []model.Subscriber{
		activeSub("a@example.com", "A", "B"),
		activeSub("b@example.com", "A", "B"),
	}}
	gen := &fakeGenerator{configured: true}
	s := newTestScheduler(store, gen, nil, nil)

	_, err := s.RunNow(context.Background())
	require.NoError(t, err)
	require.Len(t, store.logged, 2)
	assert.Equal(t, store.logged[0].Content, store.logged[1].Content)
	assert.Equal(t, storage.TopicsKey([]string{"A", "B"}), store.logged[0].TopicsKey)
	assert.True(t, store.logged[0].Success)
}

func TestUnconfiguredProviderFallsBack(t *testing.T) {
	store := &fakeStore{subs: []model.Subscriber{
		activeSub("a@example.com", "AI research papers"),
	}}
	// Real provider client with no API key: degrades to fallback text
	// without any network call.
	gen := ai.NewPerplexity(ai.Config{Model: "llama-3.1-sonar-small-128k-online"})
	s := newTestScheduler(store, gen, nil, nil)

	rep, err := s.RunNow(context.Background())
	require.NoError(t, err, "fallback content still counts as a successful pass")
	assert.Equal(t, 1, rep.NewslettersGenerated)

	require.Len(t, store.logged, 1)
	var content model.Content
	require.NoError(t, json.Unmarshal([]byte(store.logged[0].Content), &content))
	require.NotEmpty(t, content.Sections)
	for _, sec := range content.Sections {
		assert.Equal(t, model.SourceFallback, sec.Source)
		assert.NotEmpty(t, sec.Content)
	}
}

func TestUnconfiguredDispatcherSkipsDispatch(t *testing.T) {
	store := &fakeStore{subs: []model.Subscriber{
		activeSub("a@example.com", "A"),
		activeSub("b@example.com", "B"),
	}}
	mailer := &fakeDispatcher{configured: false}
	s := newTestScheduler(store, &fakeGenerator{configured: true}, mailer, nil)

	rep, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Empty(t, mailer.calls, "no dispatch attempts when mail provider is unconfigured")
	assert.Len(t, store.logged, 2, "run log still written per subscriber")
	assert.Equal(t, 2, rep.NewslettersGenerated)
}

func TestConfiguredDispatcherSendsPerGroup(t *testing.T) {
	store := &fakeStore{subs: []model.Subscriber{
		activeSub("a@example.com", "A"),
		activeSub("b@example.com", "A"),
		activeSub("c@example.com", "B"),
	}}
	mailer := &fakeDispatcher{configured: true}
	s := newTestScheduler(store, &fakeGenerator{configured: true}, mailer, nil)

	_, err := s.RunNow(context.Background())
	require.NoError(t, err)
	require.Len(t, mailer.calls, 2, "one dispatch per topic group")
	assert.Equal(t, 1, mailer.calls[0].listID)
	assert.Contains(t, mailer.calls[0].html, "news about A")
}

func TestDispatchFailureDoesNotAbortPass(t *testing.T) {
	store := &fakeStore{subs: []model.Subscriber{activeSub("a@example.com", "A")}}
	mailer := &fakeDispatcher{configured: true, err: errors.New("smtp down")}
	s := newTestScheduler(store, &fakeGenerator{configured: true}, mailer, nil)

	rep, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.NewslettersGenerated)
	assert.Len(t, store.logged, 1)
}

func TestStoreFailureAbortsPass(t *testing.T) {
	store := &fakeStore{listErr: errors.New("redis unreachable")}
	s := newTestScheduler(store, &fakeGenerator{configured: true}, nil, nil)
	require.NoError(t, s.Start())
	defer s.Stop()

	_, err := s.RunNow(context.Background())
	require.Error(t, err)
	assert.True(t, s.Status().Running, "pass failure does not change running state")
}

func TestRunLogFailureAbortsPass(t *testing.T) {
	store := &fakeStore{
		subs:      []model.Subscriber{activeSub("a@example.com", "A")},
		appendErr: errors.New("tx failed"),
	}
	s := newTestScheduler(store, &fakeGenerator{configured: true}, nil, nil)

	_, err := s.RunNow(context.Background())
	require.Error(t, err)
	assert.Empty(t, store.logged)
}

func TestTickFiresDueRuleAndAdvancesNextRun(t *testing.T) {
	now := testNow
	clock := func() time.Time { return now }
	store := &fakeStore{subs: []model.Subscriber{activeSub("a@example.com", "A")}}
	gen := &fakeGenerator{configured: true}
	s := newTestScheduler(store, gen, nil, clock)
	require.NoError(t, s.Start())
	defer s.Stop()

	// Before the firing instant nothing runs.
	s.tick(context.Background())
	assert.Empty(t, gen.calls)

	// Advance past Monday 09:00.
	now = time.Date(2026, 8, 31, 9, 0, 30, 0, time.UTC)
	s.tick(context.Background())
	require.Len(t, gen.calls, 1, "due rule triggers a pass")

	st := s.Status()
	require.NotNil(t, st.NextRun)
	assert.Equal(t, time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC), st.NextRun.UTC(),
		"next run advances to the following week")
	require.NotNil(t, st.LastRun)
	assert.Equal(t, now, st.LastRun.UTC())

	// The same firing does not repeat on the next poll.
	now = now.Add(time.Minute)
	s.tick(context.Background())
	assert.Len(t, gen.calls, 1)
}

func TestTickAfterStopIsNoOp(t *testing.T) {
	now := testNow
	clock := func() time.Time { return now }
	store := &fakeStore{subs: []model.Subscriber{activeSub("a@example.com", "A")}}
	gen := &fakeGenerator{configured: true}
	s := newTestScheduler(store, gen, nil, clock)
	require.NoError(t, s.Start())
	require.NoError(t, s.Stop())

	now = time.Date(2026, 8, 31, 9, 0, 30, 0, time.UTC)
	s.tick(context.Background())
	assert.Empty(t, gen.calls)
}

func TestStartInvalidCronSpec(t *testing.T) {
	s := New(&fakeStore{}, &fakeGenerator{}, nil, Options{
		CronSpec: "not a cron spec",
		Logger:   quietLogger(),
	})
	err := s.Start()
	require.Error(t, err)
	assert.False(t, s.Status().Running)
	assert.Equal(t, 0, s.Status().ScheduledJobs)
}
