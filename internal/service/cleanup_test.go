package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"privateinbox/backend/internal/domain"
	"privateinbox/backend/internal/monitoring"
	"privateinbox/backend/internal/storage"
	"privateinbox/backend/internal/storage/memory"
)

// fakeLocker 记录租约调用
type fakeLocker struct {
	mu       sync.Mutex
	acquired bool
	err      error
	acquires int
	releases int
}

func (l *fakeLocker) Acquire(ctx context.Context, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.acquires++
	return l.acquired, l.err
}

func (l *fakeLocker) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.releases++
	return nil
}

// sharedLease 模拟 SET NX PX：同一时刻只有一个持有者，TTL 到期后自动失效
type sharedLease struct {
	mu      sync.Mutex
	owner   string
	expires time.Time
	now     func() time.Time
}

// replicaLocker 某个实例视角下的租约
type replicaLocker struct {
	lease *sharedLease
	id    string
}

func (l *replicaLocker) Acquire(ctx context.Context, ttl time.Duration) (bool, error) {
	l.lease.mu.Lock()
	defer l.lease.mu.Unlock()
	now := l.lease.now()
	if l.lease.owner != "" && now.Before(l.lease.expires) {
		return false, nil
	}
	l.lease.owner = l.id
	l.lease.expires = now.Add(ttl)
	return true, nil
}

func (l *replicaLocker) Release(ctx context.Context) error {
	l.lease.mu.Lock()
	defer l.lease.mu.Unlock()
	if l.lease.owner == l.id {
		l.lease.owner = ""
	}
	return nil
}

func seedAddress(t *testing.T, store *memory.Store, email string, expiresAt time.Time, active bool) string {
	t.Helper()
	row, err := store.Insert(context.Background(), domain.TableTempEmails, storage.Record{
		domain.FieldEmailAddress: email,
		domain.FieldExpiresAt:    expiresAt,
		domain.FieldIsActive:     active,
		domain.FieldPlanType:     domain.PlanFree,
	})
	require.NoError(t, err)
	return storage.StringValue(row[domain.FieldID])
}

func activeByEmail(t *testing.T, store *memory.Store) map[string]bool {
	t.Helper()
	rows, err := store.Select(context.Background(), domain.TableTempEmails, nil, nil)
	require.NoError(t, err)

	result := make(map[string]bool, len(rows))
	for _, row := range rows {
		result[row[domain.FieldEmailAddress].(string)] = row[domain.FieldIsActive].(bool)
	}
	return result
}

func TestCleanupService_RunOnce(t *testing.T) {
	store := memory.NewStore()
	seedAddress(t, store, "past@b.io", fixedNow.Add(-time.Minute), true)
	seedAddress(t, store, "already@b.io", fixedNow.Add(-48*time.Hour), false)
	seedAddress(t, store, "boundary@b.io", fixedNow, true)
	seedAddress(t, store, "future@b.io", fixedNow.Add(time.Minute), true)

	svc := NewCleanupService(store, zap.NewNop())
	svc.SetClock(func() time.Time { return fixedNow })

	count, err := svc.RunOnce(context.Background())
	require.NoError(t, err)

	// 已失效的记录同样会被更新
	assert.Equal(t, int64(2), count)
	assert.Equal(t, map[string]bool{
		"past@b.io":     false,
		"already@b.io":  false,
		"boundary@b.io": true,
		"future@b.io":   true,
	}, activeByEmail(t, store))
}

func TestCleanupService_RunOnceQuery(t *testing.T) {
	store := new(MockStore)
	store.On("Update", mock.Anything, domain.TableTempEmails,
		storage.Record{"is_active": false},
		[]storage.Filter{{Column: "expires_at", Operator: storage.OpLt, Value: fixedNow}},
	).Return(int64(-1), nil).Once()

	svc := NewCleanupService(store, nil)
	svc.SetClock(func() time.Time { return fixedNow })

	count, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(-1), count)
	store.AssertExpectations(t)
}

func TestCleanupService_RunOnceFailure(t *testing.T) {
	store := new(MockStore)
	store.On("Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(int64(0), errors.New("connection reset")).Once()

	svc := NewCleanupService(store, zap.NewNop())
	svc.SetMetrics(monitoring.NewMetrics(nil))

	_, err := svc.RunOnce(context.Background())
	assert.EqualError(t, err, "connection reset")
}

func TestCleanupService_Lease(t *testing.T) {
	t.Run("租约被占用时跳过", func(t *testing.T) {
		store := new(MockStore)
		locker := &fakeLocker{acquired: false}

		svc := NewCleanupService(store, zap.NewNop())
		svc.SetLocker(locker, time.Minute)

		count, err := svc.RunOnce(context.Background())
		assert.ErrorIs(t, err, ErrCleanupSkipped)
		assert.Equal(t, int64(0), count)
		assert.Equal(t, 0, locker.releases)
		store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("成功后保留租约直到过期", func(t *testing.T) {
		store := memory.NewStore()
		seedAddress(t, store, "past@b.io", fixedNow.Add(-time.Hour), true)
		locker := &fakeLocker{acquired: true}

		svc := NewCleanupService(store, zap.NewNop())
		svc.SetClock(func() time.Time { return fixedNow })
		svc.SetLocker(locker, time.Minute)

		count, err := svc.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
		assert.Equal(t, 1, locker.acquires)
		assert.Equal(t, 0, locker.releases)
	})

	t.Run("失败时释放租约", func(t *testing.T) {
		store := new(MockStore)
		store.On("Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(int64(0), errors.New("connection reset")).Once()
		locker := &fakeLocker{acquired: true}

		svc := NewCleanupService(store, zap.NewNop())
		svc.SetLocker(locker, time.Minute)

		_, err := svc.RunOnce(context.Background())
		assert.EqualError(t, err, "connection reset")
		assert.Equal(t, 1, locker.releases)
	})

	t.Run("租约服务不可用时照常执行", func(t *testing.T) {
		store := memory.NewStore()
		seedAddress(t, store, "past@b.io", fixedNow.Add(-time.Hour), true)
		locker := &fakeLocker{err: errors.New("dial tcp: connection refused")}

		svc := NewCleanupService(store, zap.NewNop())
		svc.SetClock(func() time.Time { return fixedNow })
		svc.SetLocker(locker, 0)

		count, err := svc.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
		assert.Equal(t, 0, locker.releases)
	})
}

func TestCleanupService_RunSurvivesFailures(t *testing.T) {
	calls := make(chan struct{}, 16)
	notify := func(mock.Arguments) {
		select {
		case calls <- struct{}{}:
		default:
		}
	}

	store := new(MockStore)
	store.On("Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(int64(0), errors.New("store unavailable")).Once().Run(notify)
	store.On("Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(int64(3), nil).Run(notify)

	svc := NewCleanupService(store, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.Run(ctx, 5*time.Millisecond)
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-calls:
		case <-time.After(2 * time.Second):
			t.Fatal("cleanup tick did not fire")
		}
	}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup loop did not stop")
	}
}

func TestCleanupService_OneReplicaPerPeriod(t *testing.T) {
	clock := fixedNow
	now := func() time.Time { return clock }
	lease := &sharedLease{now: now}

	store := memory.NewStore()
	seedAddress(t, store, "past@b.io", fixedNow.Add(-time.Hour), true)

	replicaA := NewCleanupService(store, zap.NewNop())
	replicaA.SetClock(now)
	replicaA.SetLocker(&replicaLocker{lease: lease, id: "a"}, 0)

	replicaB := NewCleanupService(store, zap.NewNop())
	replicaB.SetClock(now)
	replicaB.SetLocker(&replicaLocker{lease: lease, id: "b"}, 0)

	count, err := replicaA.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// 同一周期内稍后触发的其他实例跳过
	clock = fixedNow.Add(time.Second)
	_, err = replicaB.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrCleanupSkipped)

	clock = fixedNow.Add(30 * time.Minute)
	_, err = replicaB.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrCleanupSkipped)

	// 下一个周期租约已过期，任一实例都可以执行
	clock = fixedNow.Add(domain.CleanupInterval)
	_, err = replicaB.RunOnce(context.Background())
	assert.NoError(t, err)

	_, err = replicaA.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrCleanupSkipped)
}

func TestDefaultLeaseTTL(t *testing.T) {
	assert.Less(t, DefaultLeaseTTL, domain.CleanupInterval)
	assert.Greater(t, DefaultLeaseTTL, domain.CleanupInterval/2)
}
