package goIdentity

import (
	"context"
	"regexp"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ---------------------------------------------------------------------------
// Mock repository
// ---------------------------------------------------------------------------

type mockRepo struct {
	mu       sync.Mutex
	accounts map[string]Account

	// failNext, when set, fails every call with this error.
	failNext error
}

func newMockRepo() *mockRepo {
	return &mockRepo{accounts: make(map[string]Account)}
}

func (m *mockRepo) put(account Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	m.accounts[account.ID] = account
}

func (m *mockRepo) get(id string) (Account, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	return account, ok
}

func (m *mockRepo) GetByID(_ context.Context, id string) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		return Account{}, m.failNext
	}
	account, ok := m.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return account, nil
}

func (m *mockRepo) GetByUsername(_ context.Context, username string) (Account, error) {
	return m.findOne(func(a Account) bool { return a.Username == username })
}

func (m *mockRepo) GetByEmail(_ context.Context, email string) (Account, error) {
	return m.findOne(func(a Account) bool { return a.Email == email })
}

func (m *mockRepo) GetByMobile(_ context.Context, mobile string) (Account, error) {
	return m.findOne(func(a Account) bool { return a.Mobile == mobile })
}

func (m *mockRepo) ListByEmail(_ context.Context, email string) ([]Account, error) {
	return m.findAll(func(a Account) bool { return a.Email == email })
}

func (m *mockRepo) ListByMobile(_ context.Context, mobile string) ([]Account, error) {
	return m.findAll(func(a Account) bool { return a.Mobile == mobile })
}

func (m *mockRepo) Create(_ context.Context, input CreateAccountInput) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		return Account{}, m.failNext
	}

	for _, existing := range m.accounts {
		if existing.Username == input.Username ||
			(input.Email != "" && existing.Email == input.Email) ||
			(input.Mobile != "" && existing.Mobile == input.Mobile) {
			return Account{}, ErrDuplicateKey
		}
	}

	account := Account{
		ID:             uuid.NewString(),
		Username:       input.Username,
		Email:          input.Email,
		Mobile:         input.Mobile,
		CredentialHash: input.CredentialHash,
		Name:           input.Name,
		DateOfBirth:    input.DateOfBirth,
		Gender:         input.Gender,
	}
	m.accounts[account.ID] = account
	return account, nil
}

func (m *mockRepo) UpdateCredentialHash(_ context.Context, id, hash string) error {
	return m.update(id, func(a *Account) { a.CredentialHash = hash })
}

func (m *mockRepo) UpdateVerification(_ context.Context, id, code string, expiry time.Time) error {
	return m.update(id, func(a *Account) {
		a.OTPCode = code
		a.OTPExpiry = expiry
	})
}

func (m *mockRepo) UpdateResetCode(_ context.Context, id, code string, expiry time.Time) error {
	return m.update(id, func(a *Account) {
		a.ResetCode = code
		a.ResetExpiry = expiry
	})
}

func (m *mockRepo) UpdateDeactivated(_ context.Context, id string, deactivated bool) (Account, error) {
	if err := m.update(id, func(a *Account) { a.Deactivated = deactivated }); err != nil {
		return Account{}, err
	}
	account, _ := m.get(id)
	return account, nil
}

func (m *mockRepo) UpdateRecoveryChannels(_ context.Context, id string, emails, phones []string) error {
	return m.update(id, func(a *Account) {
		a.RecoveryEmails = emails
		a.RecoveryPhones = phones
	})
}

func (m *mockRepo) UpdateProfileImage(_ context.Context, id, ref string) error {
	return m.update(id, func(a *Account) { a.ProfileImageRef = ref })
}

func (m *mockRepo) UpdatePushToken(_ context.Context, id, token, platform string) error {
	return m.update(id, func(a *Account) {
		a.PushToken = token
		a.PushPlatform = platform
	})
}

func (m *mockRepo) findOne(match func(Account) bool) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		return Account{}, m.failNext
	}
	for _, account := range m.accounts {
		if match(account) {
			return account, nil
		}
	}
	return Account{}, ErrAccountNotFound
}

func (m *mockRepo) findAll(match func(Account) bool) ([]Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		return nil, m.failNext
	}
	var out []Account
	for _, account := range m.accounts {
		if match(account) {
			out = append(out, account)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *mockRepo) update(id string, mutate func(*Account)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		return m.failNext
	}
	account, ok := m.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	mutate(&account)
	m.accounts[id] = account
	return nil
}

// ---------------------------------------------------------------------------
// Stub delivery gateway
// ---------------------------------------------------------------------------

type sentMessage struct {
	To      string
	Subject string
	Body    string
	SMS     bool
}

type stubDelivery struct {
	mu        sync.Mutex
	sent      []sentMessage
	failEmail error
	failSMS   error
}

func (s *stubDelivery) SendEmail(_ context.Context, to, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failEmail != nil {
		return s.failEmail
	}
	s.sent = append(s.sent, sentMessage{To: to, Subject: subject, Body: body})
	return nil
}

func (s *stubDelivery) SendSMS(_ context.Context, to, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSMS != nil {
		return s.failSMS
	}
	s.sent = append(s.sent, sentMessage{To: to, Body: body, SMS: true})
	return nil
}

var codePattern = regexp.MustCompile(`[0-9]{6}`)

// lastCode extracts the 6-digit code from the most recent message.
func (s *stubDelivery) lastCode(t *testing.T) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		t.Fatalf("no messages sent")
	}
	code := codePattern.FindString(s.sent[len(s.sent)-1].Body)
	if code == "" {
		t.Fatalf("no code in message body %q", s.sent[len(s.sent)-1].Body)
	}
	return code
}

func (s *stubDelivery) last(t *testing.T) sentMessage {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		t.Fatalf("no messages sent")
	}
	return s.sent[len(s.sent)-1]
}

func (s *stubDelivery) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

// ---------------------------------------------------------------------------
// Engine harness
// ---------------------------------------------------------------------------

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.PrivateKey = []byte("unit-test-signing-key-0123456789")

	// Cheapest parameters the validator accepts; hashing dominates test
	// runtime otherwise.
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Password.SaltLength = 16
	cfg.Password.KeyLength = 16

	return cfg
}

type testEngine struct {
	engine   *Engine
	repo     *mockRepo
	delivery *stubDelivery
	redis    *miniredis.Miniredis
}

func newTestEngine(t *testing.T, mutate func(*Config)) *testEngine {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	repo := newMockRepo()
	delivery := &stubDelivery{}

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithRepository(repo).
		WithDelivery(delivery).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testEngine{engine: engine, repo: repo, delivery: delivery, redis: mr}
}

func newTestEngineWithSink(t *testing.T, sink AuditSink) *testEngine {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := testConfig()
	cfg.Audit.Enabled = true

	repo := newMockRepo()
	delivery := &stubDelivery{}

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithRepository(repo).
		WithDelivery(delivery).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testEngine{engine: engine, repo: repo, delivery: delivery, redis: mr}
}

func (te *testEngine) seedAccount(t *testing.T, account Account) Account {
	t.Helper()
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	te.repo.put(account)
	return account
}

func (te *testEngine) hash(t *testing.T, secret string) string {
	t.Helper()
	hash, err := te.engine.passwordHash.Hash(secret)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	return hash
}

func validSignupRequest() SignupRequest {
	return SignupRequest{
		Name:        "Alice",
		Username:    "alice",
		Email:       "alice@example.com",
		DateOfBirth: time.Date(2000, 4, 2, 0, 0, 0, 0, time.UTC),
		Gender:      "female",
		Password:    "Str0ng!pass",
	}
}

func dobForAge(age int) time.Time {
	return time.Date(time.Now().Year()-age, 6, 15, 0, 0, 0, 0, time.UTC)
}
