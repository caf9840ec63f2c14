package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talentdesk/expiry-engine/internal/alert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeFlagStore keeps eligibility and dedup claims in memory. FindEligible
// honors claims the way the SQL NOT EXISTS filter does.
type fakeFlagStore struct {
	mu          sync.Mutex
	employees   map[string][]Employee // keyed by doc/threshold
	claims      map[string]bool       // keyed by employee/doc/threshold
	eligibleErr error
	claimErr    error
}

func newFakeFlagStore() *fakeFlagStore {
	return &fakeFlagStore{
		employees: make(map[string][]Employee),
		claims:    make(map[string]bool),
	}
}

func batchKey(doc alert.DocumentType, days int) string {
	return fmt.Sprintf("%s/%d", doc, days)
}

func claimKey(id int64, doc alert.DocumentType, days int) string {
	return fmt.Sprintf("%d/%s/%d", id, doc, days)
}

func (f *fakeFlagStore) addEligible(doc alert.DocumentType, days int, emps ...Employee) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := batchKey(doc, days)
	f.employees[key] = append(f.employees[key], emps...)
}

func (f *fakeFlagStore) FindEligible(_ context.Context, doc alert.DocumentType, days int, _ time.Time) ([]Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.eligibleErr != nil {
		return nil, f.eligibleErr
	}
	var out []Employee
	for _, e := range f.employees[batchKey(doc, days)] {
		if !f.claims[claimKey(e.ID, doc, days)] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeFlagStore) ClaimSent(_ context.Context, id int64, doc alert.DocumentType, days int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claimErr != nil {
		return false, f.claimErr
	}
	key := claimKey(id, doc, days)
	if f.claims[key] {
		return false, nil
	}
	f.claims[key] = true
	return true, nil
}

func (f *fakeFlagStore) claimed(id int64, doc alert.DocumentType, days int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.claims[claimKey(id, doc, days)]
}

// fakeAuditor records audit transitions in memory and can be told to start
// failing creates after N records (mid-batch persistence failure).
type fakeAuditor struct {
	mu              sync.Mutex
	records         map[uuid.UUID]*Record
	order           []uuid.UUID
	failCreateAfter int // <0 disables
}

func newFakeAuditor() *fakeAuditor {
	return &fakeAuditor{records: make(map[uuid.UUID]*Record), failCreateAfter: -1}
}

func (f *fakeAuditor) CreatePending(_ context.Context, rec *Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreateAfter >= 0 && len(f.records) >= f.failCreateAfter {
		return fmt.Errorf("audit store unreachable")
	}
	rec.ID = uuid.New()
	rec.Status = StatusPending
	rec.CreatedAt = time.Now().UTC()
	stored := *rec
	f.records[rec.ID] = &stored
	f.order = append(f.order, rec.ID)
	return nil
}

func (f *fakeAuditor) MarkSent(_ context.Context, id uuid.UUID, sentAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok || rec.Status != StatusPending {
		return fmt.Errorf("record %s is not pending", id)
	}
	rec.Status = StatusSent
	rec.SentAt = &sentAt
	return nil
}

func (f *fakeAuditor) MarkFailed(_ context.Context, id uuid.UUID, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok || rec.Status != StatusPending {
		return fmt.Errorf("record %s is not pending", id)
	}
	rec.Status = StatusFailed
	rec.ErrorMessage = errMsg
	return nil
}

func (f *fakeAuditor) countByStatus(status Status) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, rec := range f.records {
		if rec.Status == status {
			n++
		}
	}
	return n
}

// fakeSender succeeds by default and fails for recipients in failFor.
type fakeSender struct {
	mu      sync.Mutex
	sent    []Email
	failFor map[string]error
}

func newFakeSender() *fakeSender {
	return &fakeSender{failFor: make(map[string]error)}
}

func (f *fakeSender) Send(_ context.Context, email Email) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFor[email.To]; ok {
		return err
	}
	f.sent = append(f.sent, email)
	return nil
}

func (f *fakeSender) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func testEmployee(id int64, expiry time.Time) Employee {
	return Employee{
		ID:         id,
		FullName:   fmt.Sprintf("Employee %d", id),
		Email:      fmt.Sprintf("employee%d@example.com", id),
		ExpiryDate: expiry,
	}
}
