package engine

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/iWorld-y/report_radar/app/report_radar/pkg/model"
	"github.com/iWorld-y/report_radar/app/report_radar/pkg/storage"
)

// mockStore 内存实现的 Store，记录每个报告经历的状态
type mockStore struct {
	mu       sync.Mutex
	nextID   int64
	reports  map[int64]*model.Report
	messages []model.ConversationMessage
	statuses map[int64][]model.Status
	failOn   string
}

func newMockStore() *mockStore {
	return &mockStore{reports: map[int64]*model.Report{}, statuses: map[int64][]model.Status{}}
}

var errStoreDown = errors.New("store unavailable")

func (m *mockStore) fail(op string) error {
	if m.failOn == op {
		return errStoreDown
	}
	return nil
}

func (m *mockStore) seed(r model.Report) *model.Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r.ID = m.nextID
	if r.Status == "" {
		r.Status = model.StatusDraft
	}
	m.reports[r.ID] = &r
	return &r
}

func (m *mockStore) snapshot(id int64) model.Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.reports[id]
}

func (m *mockStore) history(id int64) []model.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Status(nil), m.statuses[id]...)
}

func (m *mockStore) CreateReport(_ context.Context, r *model.Report) (int64, error) {
	if err := m.fail("create"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r.ID = m.nextID
	r.CreatedAt, r.UpdatedAt = time.Now(), time.Now()
	cp := *r
	m.reports[r.ID] = &cp
	m.statuses[r.ID] = append(m.statuses[r.ID], r.Status)
	return r.ID, nil
}

func (m *mockStore) lookup(id, userID int64) (*model.Report, bool) {
	r, ok := m.reports[id]
	if !ok || (userID != 0 && r.UserID != userID) {
		return nil, false
	}
	return r, true
}

func (m *mockStore) GetReport(_ context.Context, id, userID int64) (*model.Report, error) {
	if err := m.fail("get"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.lookup(id, userID)
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockStore) ListReports(_ context.Context, userID int64) ([]*model.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Report{}
	for _, r := range m.reports {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *mockStore) UpdateReport(_ context.Context, id, userID int64, u storage.ReportUpdate) (bool, error) {
	if u.Content != nil {
		if err := m.fail("content"); err != nil {
			return false, err
		}
	}
	if u.Status != nil && *u.Status == model.StatusGenerating {
		if err := m.fail("generating"); err != nil {
			return false, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.lookup(id, userID)
	if !ok {
		return false, nil
	}
	if u.Title != nil {
		r.Title = *u.Title
	}
	if u.Industry != nil {
		r.Industry = *u.Industry
	}
	if u.Scenario != nil {
		r.Scenario = *u.Scenario
	}
	if u.Outline != nil {
		r.Outline = *u.Outline
	}
	if u.Highlights != nil {
		r.Highlights = *u.Highlights
	}
	if u.Metrics != nil {
		r.Metrics = *u.Metrics
	}
	if u.Content != nil {
		c := *u.Content
		r.Content = &c
	}
	if u.Status != nil {
		r.Status = *u.Status
		m.statuses[id] = append(m.statuses[id], *u.Status)
	}
	return true, nil
}

func (m *mockStore) DeleteReport(_ context.Context, id, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lookup(id, userID); !ok {
		return false, nil
	}
	delete(m.reports, id)
	kept := m.messages[:0]
	for _, msg := range m.messages {
		if msg.ReportID != id {
			kept = append(kept, msg)
		}
	}
	m.messages = kept
	return true, nil
}

func (m *mockStore) AppendMessage(_ context.Context, msg *model.ConversationMessage) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = int64(len(m.messages) + 1)
	msg.CreatedAt = time.Now()
	m.messages = append(m.messages, *msg)
	return msg.ID, nil
}

func (m *mockStore) ListMessages(_ context.Context, reportID int64) ([]model.ConversationMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.ConversationMessage{}
	for _, msg := range m.messages {
		if msg.ReportID == reportID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *mockStore) RecentMessages(ctx context.Context, reportID int64, limit int) ([]model.ConversationMessage, error) {
	all, _ := m.ListMessages(ctx, reportID)
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}
