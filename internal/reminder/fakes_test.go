package reminder

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/duecall/internal/domain"
	"github.com/phrazzld/duecall/internal/store"
	"github.com/stretchr/testify/mock"
)

var (
	testNow        = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	testClassifier = domain.NewUrgencyClassifier(time.UTC)
)

// fakeTaskStore returns tasks in insertion order after applying the filter,
// ignoring the requested sort, so tests can check the selector re-sorts.
type fakeTaskStore struct {
	mu      sync.Mutex
	tasks   []domain.Task
	findErr error
	findFn  func() // runs at the start of Find
}

var _ store.TaskStore = (*fakeTaskStore)(nil)

func (s *fakeTaskStore) add(tasks ...domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, tasks...)
}

func (s *fakeTaskStore) Create(_ context.Context, task *domain.Task) error {
	s.add(*task)
	return nil
}

func (s *fakeTaskStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, task := range s.tasks {
		if task.ID == id {
			t := task
			return &t, nil
		}
	}
	return nil, store.ErrTaskNotFound
}

func (s *fakeTaskStore) Find(_ context.Context, filter store.TaskFilter, _ []store.TaskSort) ([]domain.Task, error) {
	if s.findFn != nil {
		s.findFn()
	}
	if s.findErr != nil {
		return nil, s.findErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Task
	for i := range s.tasks {
		if filter.Matches(&s.tasks[i]) {
			out = append(out, s.tasks[i])
		}
	}
	return out, nil
}

func (s *fakeTaskStore) Update(context.Context, uuid.UUID, store.TaskUpdate) (*domain.Task, error) {
	return nil, errors.New("not implemented")
}

func (s *fakeTaskStore) SoftDelete(context.Context, uuid.UUID, time.Time) error {
	return errors.New("not implemented")
}

type fakeUserStore struct {
	mu     sync.Mutex
	users  map[uuid.UUID]*domain.User
	getErr error
}

var _ store.UserStore = (*fakeUserStore)(nil)

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[uuid.UUID]*domain.User{}}
}

func (s *fakeUserStore) Create(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

// fakeGateway records every call and fails or blocks on request.
type fakeGateway struct {
	mu     sync.Mutex
	calls  []string
	fail   map[string]error
	callFn func(ctx context.Context, phone string) error
}

func (g *fakeGateway) PlaceCall(ctx context.Context, phone string) error {
	g.mu.Lock()
	g.calls = append(g.calls, phone)
	fn := g.callFn
	err := g.fail[phone]
	g.mu.Unlock()

	if fn != nil {
		if ferr := fn(ctx, phone); ferr != nil {
			return ferr
		}
	}
	return err
}

func (g *fakeGateway) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

// memLedger is an in-process Ledger with injectable read failures.
type memLedger struct {
	mu      sync.Mutex
	last    map[uuid.UUID]time.Time
	readErr error
}

func newMemLedger() *memLedger {
	return &memLedger{last: map[uuid.UUID]time.Time{}}
}

func (l *memLedger) LastNotified(_ context.Context, id uuid.UUID) (time.Time, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.readErr != nil {
		return time.Time{}, false, l.readErr
	}
	at, ok := l.last[id]
	return at, ok, nil
}

func (l *memLedger) MarkNotified(_ context.Context, id uuid.UUID, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last[id] = at
	return nil
}

// MockRecorder is a testify mock for AttemptRecorder.
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(ctx context.Context, attempt Attempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

// countingMetrics tallies what the dispatcher reports.
type countingMetrics struct {
	mu       sync.Mutex
	attempts map[Outcome]int
	runs     map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{attempts: map[Outcome]int{}, runs: map[string]int{}}
}

func (m *countingMetrics) RecordAttempt(_ context.Context, outcome Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[outcome]++
}

func (m *countingMetrics) RecordRun(_ context.Context, result string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[result]++
}

// fixture wires a dispatcher over fakes.
type fixture struct {
	tasks   *fakeTaskStore
	users   *fakeUserStore
	gateway *fakeGateway
	ledger  *memLedger
	metrics *countingMetrics
}

func newFixture() *fixture {
	return &fixture{
		tasks:   &fakeTaskStore{},
		users:   newFakeUserStore(),
		gateway: &fakeGateway{fail: map[string]error{}},
		ledger:  newMemLedger(),
		metrics: newCountingMetrics(),
	}
}

func (f *fixture) dispatcher(config DispatcherConfig, opts ...Option) *Dispatcher {
	opts = append([]Option{
		WithLedger(f.ledger),
		WithMetrics(f.metrics),
		WithClock(func() time.Time { return testNow }),
	}, opts...)
	return NewDispatcher(NewSelector(f.tasks, nil), f.users, f.gateway, config, nil, opts...)
}

// user adds a user with the given phone number.
func (f *fixture) user(phone string) *domain.User {
	u := &domain.User{ID: uuid.New(), PhoneNumber: phone, CreatedAt: testNow, UpdatedAt: testNow}
	_ = f.users.Create(context.Background(), u)
	return u
}

// overdue adds a pending task for owner due at the offset from testNow.
func (f *fixture) overdue(owner uuid.UUID, title string, offset time.Duration) domain.Task {
	task := newTask(owner, title, testNow.Add(offset))
	f.tasks.add(task)
	return task
}

func newTask(owner uuid.UUID, title string, due time.Time) domain.Task {
	task, err := domain.NewTask(owner, title, "", due, testNow, testClassifier)
	if err != nil {
		panic(err)
	}
	return *task
}
