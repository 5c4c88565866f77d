package syncstate

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/domain"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/pkg/distlock"
)

type mockRepo struct {
	mu        sync.Mutex
	leads     map[string]*domain.Lead
	sends     map[string]*domain.SendRecord
	findErr   error
	auditErr  error
	markErr   error
	reconcile int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{leads: map[string]*domain.Lead{}, sends: map[string]*domain.SendRecord{}}
}

func (m *mockRepo) addLead(source domain.LeadSource, email string) *domain.Lead {
	l := &domain.Lead{ID: uuid.New().String(), Source: source, Email: email}
	m.leads[l.ID] = l
	return l
}

func (m *mockRepo) FindLead(_ context.Context, ref LeadRef) (*domain.Lead, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.leads {
		if l.Source != ref.Source {
			continue
		}
		if (ref.LeadID != "" && l.ID == ref.LeadID) || (ref.LeadID == "" && l.Email == ref.Email) {
			cp := *l
			return &cp, nil
		}
	}
	return nil, ErrLeadNotFound
}

func (m *mockRepo) LatestSuccessfulSend(_ context.Context, source domain.LeadSource, leadID string, platform domain.Platform) (*domain.SendRecord, error) {
	if m.auditErr != nil {
		return nil, m.auditErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *domain.SendRecord
	for _, r := range m.sends {
		if r.LeadID != leadID || r.LeadSource != source || r.Platform != platform || !r.Status.Successful() {
			continue
		}
		if latest == nil || r.SentAt.After(latest.SentAt) {
			latest = r
		}
	}
	return latest, nil
}

func (m *mockRepo) UpsertSend(_ context.Context, rec *domain.SendRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := rec.LeadID + "|" + string(rec.LeadSource) + "|" + rec.CampaignID
	if existing, ok := m.sends[key]; ok {
		rec.ID = existing.ID
	} else {
		rec.ID = uuid.New().String()
	}
	cp := *rec
	m.sends[key] = &cp
	return nil
}

func (m *mockRepo) MarkSynced(_ context.Context, source domain.LeadSource, leadID string, platform domain.Platform, at time.Time) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.leads[leadID]
	switch platform {
	case domain.PlatformInstantly:
		l.InstantlySynced = true
		if l.InstantlySyncedAt == nil {
			l.InstantlySyncedAt = &at
		}
	case domain.PlatformHeyReach:
		l.HeyReachSynced = true
		if l.HeyReachSyncedAt == nil {
			l.HeyReachSyncedAt = &at
		}
	}
	return nil
}

func (m *mockRepo) History(_ context.Context, source domain.LeadSource, leadID string) ([]domain.SendRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.SendRecord{}
	for _, r := range m.sends {
		if r.LeadID == leadID && r.LeadSource == source {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.After(out[j].SentAt) })
	return out, nil
}

func (m *mockRepo) ReconcileFlags(context.Context) (int64, error) {
	return m.reconcile, nil
}

type fakeDispatcher struct {
	resp json.RawMessage
	err  error
	got  []string
}

func (f *fakeDispatcher) Dispatch(_ context.Context, campaignID string, lead domain.Lead) (json.RawMessage, error) {
	f.got = append(f.got, campaignID+"|"+lead.Email)
	return f.resp, f.err
}

type fakeLock struct {
	acquired bool
	released bool
}

func (l *fakeLock) Acquire(context.Context) (bool, error) { return l.acquired, nil }
func (l *fakeLock) Release(context.Context) error         { l.released = true; return nil }

func TestCheckStatus_AuditWins(t *testing.T) {
	repo := newMockRepo()
	l := repo.addLead(domain.SourceEmail, "jane@acme.io")
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	first := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	_, err := svc.RecordSend(ctx, SendInput{
		LeadID: l.ID, Source: domain.SourceEmail, CampaignID: "c1", CampaignName: "Spring",
		Platform: domain.PlatformInstantly, Status: domain.SendSent, SentAt: first,
	})
	require.NoError(t, err)
	_, err = svc.RecordSend(ctx, SendInput{
		LeadID: l.ID, Source: domain.SourceEmail, CampaignID: "c2", CampaignName: "Summer",
		Platform: domain.PlatformInstantly, Status: domain.SendSent, SentAt: first.Add(48 * time.Hour),
	})
	require.NoError(t, err)

	st, err := svc.CheckStatus(ctx, Query{Email: "  Jane@Acme.io ", Source: domain.SourceEmail, Platform: domain.PlatformInstantly})
	require.NoError(t, err)
	assert.True(t, st.Synced)
	assert.Equal(t, BasisAudit, st.Basis)
	require.NotNil(t, st.Campaign)
	assert.Equal(t, "Summer", st.Campaign.Name)
	assert.Equal(t, first.Add(48*time.Hour), *st.SyncedAt)

	// The flag keeps the first send time.
	assert.Equal(t, first, *repo.leads[l.ID].InstantlySyncedAt)

	st, err = svc.CheckStatus(ctx, Query{LeadID: l.ID, Source: domain.SourceEmail, Platform: domain.PlatformHeyReach})
	require.NoError(t, err)
	assert.False(t, st.Synced)
}

func TestCheckStatus_FlagOnlyLegacyLead(t *testing.T) {
	repo := newMockRepo()
	l := repo.addLead(domain.SourceLinkedIn, "ops@globex.com")
	at := time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)
	l.HeyReachSynced = true
	l.HeyReachSyncedAt = &at
	svc := NewService(repo, nil, nil)

	st, err := svc.CheckStatus(context.Background(), Query{
		Email: "ops@globex.com", Source: domain.SourceLinkedIn, Platform: domain.PlatformHeyReach,
	})
	require.NoError(t, err)
	assert.True(t, st.Synced)
	assert.Equal(t, BasisFlag, st.Basis)
	assert.Nil(t, st.Campaign)
	assert.Equal(t, at, *st.SyncedAt)
}

func TestCheckStatus_UnknownLead(t *testing.T) {
	svc := NewService(newMockRepo(), nil, nil)

	st, err := svc.CheckStatus(context.Background(), Query{
		Email: "nobody@nowhere.io", Source: domain.SourceEmail, Platform: domain.PlatformInstantly,
	})
	require.NoError(t, err)
	assert.False(t, st.Synced)
	assert.Empty(t, st.LeadID)
}

func TestCheckStatus_InternalErrorsReportNotSynced(t *testing.T) {
	repo := newMockRepo()
	repo.findErr = errors.New("pq: connection refused")
	svc := NewService(repo, nil, nil)
	q := Query{Email: "a@b.co", Source: domain.SourceEmail, Platform: domain.PlatformInstantly}

	st, err := svc.CheckStatus(context.Background(), q)
	require.NoError(t, err)
	assert.False(t, st.Synced)

	repo.findErr = nil
	l := repo.addLead(domain.SourceEmail, "a@b.co")
	l.InstantlySynced = true
	repo.auditErr = errors.New("statement timeout")

	st, err = svc.CheckStatus(context.Background(), q)
	require.NoError(t, err)
	assert.False(t, st.Synced, "audit failure must not fall back to the flag")
}

func TestCheckStatus_InvalidQuery(t *testing.T) {
	svc := NewService(newMockRepo(), nil, nil)
	ctx := context.Background()

	cases := []Query{
		{Source: domain.SourceEmail, Platform: domain.PlatformInstantly},
		{Email: "a@b.co", Source: "crm", Platform: domain.PlatformInstantly},
		{Email: "a@b.co", Source: domain.SourceEmail, Platform: "lemlist"},
		{LeadID: "not-a-uuid", Source: domain.SourceEmail, Platform: domain.PlatformInstantly},
	}
	for _, q := range cases {
		_, err := svc.CheckStatus(ctx, q)
		assert.ErrorIs(t, err, ErrInvalidQuery, "%+v", q)
	}
}

func TestRecordSend_RepeatUpdatesSameRow(t *testing.T) {
	repo := newMockRepo()
	l := repo.addLead(domain.SourceEmail, "jane@acme.io")
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	in := SendInput{LeadID: l.ID, Source: domain.SourceEmail, CampaignID: "c1",
		Platform: domain.PlatformInstantly, Status: domain.SendFailed}
	first, err := svc.RecordSend(ctx, in)
	require.NoError(t, err)
	assert.False(t, repo.leads[l.ID].InstantlySynced, "failed sends do not set the flag")

	in.Status = domain.SendSent
	second, err := svc.RecordSend(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.sends, 1)
	assert.True(t, repo.leads[l.ID].InstantlySynced)
}

func TestRecordSend_FlagFailureIsNotReturned(t *testing.T) {
	repo := newMockRepo()
	l := repo.addLead(domain.SourceEmail, "jane@acme.io")
	repo.markErr = errors.New("deadlock detected")
	svc := NewService(repo, nil, nil)

	rec, err := svc.RecordSend(context.Background(), SendInput{LeadID: l.ID, Source: domain.SourceEmail,
		CampaignID: "c1", Platform: domain.PlatformInstantly, Status: domain.SendSent})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
}

func TestRecordSend_Validation(t *testing.T) {
	repo := newMockRepo()
	l := repo.addLead(domain.SourceEmail, "jane@acme.io")
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.RecordSend(ctx, SendInput{LeadID: l.ID, Source: domain.SourceEmail,
		Platform: domain.PlatformInstantly, Status: domain.SendSent})
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = svc.RecordSend(ctx, SendInput{LeadID: l.ID, Source: domain.SourceEmail, CampaignID: "c1",
		Platform: domain.PlatformInstantly, Status: "delivered"})
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = svc.RecordSend(ctx, SendInput{LeadID: l.ID, Source: domain.SourceEmail, CampaignID: "c1",
		Platform: domain.PlatformInstantly, Status: domain.SendSent, Response: json.RawMessage(`{bad`)})
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = svc.RecordSend(ctx, SendInput{LeadID: uuid.New().String(), Source: domain.SourceEmail, CampaignID: "c1",
		Platform: domain.PlatformInstantly, Status: domain.SendSent})
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestDispatch(t *testing.T) {
	repo := newMockRepo()
	l := repo.addLead(domain.SourceEmail, "jane@acme.io")
	inst := &fakeDispatcher{resp: json.RawMessage(`{"id":"lead-123"}`)}
	svc := NewService(repo, map[domain.Platform]Dispatcher{domain.PlatformInstantly: inst}, nil)

	rec, err := svc.Dispatch(context.Background(), DispatchInput{
		LeadID: l.ID, Source: domain.SourceEmail, Platform: domain.PlatformInstantly,
		CampaignID: "c1", CampaignName: "Spring",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SendSent, rec.Status)
	assert.JSONEq(t, `{"id":"lead-123"}`, string(rec.Response))
	assert.Equal(t, []string{"c1|jane@acme.io"}, inst.got)
	assert.True(t, repo.leads[l.ID].InstantlySynced)
}

func TestDispatch_GatewayFailureIsRecorded(t *testing.T) {
	repo := newMockRepo()
	l := repo.addLead(domain.SourceLinkedIn, "jane@acme.io")
	hr := &fakeDispatcher{err: errors.New("heyreach: campaign is paused")}
	svc := NewService(repo, map[domain.Platform]Dispatcher{domain.PlatformHeyReach: hr}, nil)

	rec, err := svc.Dispatch(context.Background(), DispatchInput{
		LeadID: l.ID, Source: domain.SourceLinkedIn, Platform: domain.PlatformHeyReach, CampaignID: "77",
	})
	require.Error(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, domain.SendFailed, rec.Status)
	assert.Contains(t, string(rec.Response), "campaign is paused")
	assert.False(t, repo.leads[l.ID].HeyReachSynced)
}

func TestDispatch_NoDispatcher(t *testing.T) {
	svc := NewService(newMockRepo(), nil, nil)
	_, err := svc.Dispatch(context.Background(), DispatchInput{
		LeadID: uuid.New().String(), Source: domain.SourceEmail, Platform: domain.PlatformHeyReach, CampaignID: "1",
	})
	assert.ErrorIs(t, err, ErrNoDispatcher)
}

func TestHistory(t *testing.T) {
	repo := newMockRepo()
	l := repo.addLead(domain.SourceEmail, "jane@acme.io")
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i, c := range []string{"a", "b", "c"} {
		_, err := svc.RecordSend(ctx, SendInput{LeadID: l.ID, Source: domain.SourceEmail, CampaignID: c,
			Platform: domain.PlatformInstantly, Status: domain.SendSent, SentAt: base.Add(time.Duration(i) * time.Minute)})
		require.NoError(t, err)
	}

	recs, err := svc.History(ctx, domain.SourceEmail, l.ID)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "c", recs[0].CampaignID)

	_, err = svc.History(ctx, domain.SourceEmail, "nope")
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestReconcile_Lock(t *testing.T) {
	repo := newMockRepo()
	repo.reconcile = 5

	held := &fakeLock{acquired: true}
	svc := NewService(repo, nil, func() distlock.DistLock { return held })
	n, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.True(t, held.released)

	busy := &fakeLock{acquired: false}
	svc = NewService(repo, nil, func() distlock.DistLock { return busy })
	_, err = svc.Reconcile(context.Background())
	assert.ErrorIs(t, err, ErrReconcileLocked)
	assert.False(t, busy.released)
}

func TestReconciler_StartStop(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil, nil)
	r := NewReconciler(svc, time.Hour)

	r.Start(context.Background())
	r.Start(context.Background())
	r.Stop()
	r.Stop()

	disabled := NewReconciler(svc, 0)
	disabled.Start(context.Background())
	assert.False(t, disabled.running)
}
