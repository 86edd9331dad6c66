package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/smartedu/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Save(ctx context.Context, entries ...*shared.OutboxEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockOutboxRepository) FindPending(ctx context.Context, limit int) ([]*shared.OutboxEntry, error) {
	args := m.Called(ctx, limit)
	entries, _ := args.Get(0).([]*shared.OutboxEntry)
	return entries, args.Error(1)
}

func (m *MockOutboxRepository) FindRetryable(ctx context.Context, before time.Time, limit int) ([]*shared.OutboxEntry, error) {
	args := m.Called(ctx, before, limit)
	entries, _ := args.Get(0).([]*shared.OutboxEntry)
	return entries, args.Error(1)
}

func (m *MockOutboxRepository) FindDead(ctx context.Context, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	args := m.Called(ctx, page, pageSize)
	entries, _ := args.Get(0).([]*shared.OutboxEntry)
	return entries, args.Get(1).(int64), args.Error(2)
}

func (m *MockOutboxRepository) FindByID(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	args := m.Called(ctx, id)
	entry, _ := args.Get(0).(*shared.OutboxEntry)
	return entry, args.Error(1)
}

func (m *MockOutboxRepository) MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*shared.OutboxEntry, error) {
	args := m.Called(ctx, ids)
	entries, _ := args.Get(0).([]*shared.OutboxEntry)
	return entries, args.Error(1)
}

func (m *MockOutboxRepository) Update(ctx context.Context, entry *shared.OutboxEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockOutboxRepository) ReleaseStale(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOutboxRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOutboxRepository) CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error) {
	args := m.Called(ctx)
	counts, _ := args.Get(0).(map[shared.OutboxStatus]int64)
	return counts, args.Error(1)
}

func newDeadEntry() *shared.OutboxEntry {
	now := time.Now()
	return &shared.OutboxEntry{
		ID:            uuid.New(),
		TenantID:      uuid.New(),
		EventID:       uuid.New(),
		EventType:     "tenant.created",
		SchemaVersion: 1,
		AggregateID:   uuid.New(),
		AggregateType: "Tenant",
		Status:        shared.OutboxStatusDead,
		RetryCount:    5,
		MaxRetries:    5,
		LastError:     "redis: connection refused",
		OccurredAt:    now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestOutboxService_GetDeadLetterEntries(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		filter       OutboxFilter
		wantPage     int
		wantPageSize int
	}{
		{"defaults", OutboxFilter{}, 1, 20},
		{"explicit page", OutboxFilter{Page: 2, PageSize: 2}, 2, 2},
		{"page size capped", OutboxFilter{Page: 1, PageSize: 500}, 1, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockOutboxRepository)
			service := NewOutboxService(repo, zap.NewNop())

			entries := []*shared.OutboxEntry{newDeadEntry(), newDeadEntry()}
			repo.On("FindDead", ctx, tt.wantPage, tt.wantPageSize).Return(entries, int64(5), nil)

			result, err := service.GetDeadLetterEntries(ctx, tt.filter)
			require.NoError(t, err)

			assert.Equal(t, int64(5), result.Total)
			assert.Equal(t, tt.wantPage, result.Page)
			assert.Equal(t, tt.wantPageSize, result.PageSize)
			assert.Equal(t, int((5+tt.wantPageSize-1)/tt.wantPageSize), result.TotalPages)
			require.Len(t, result.Entries, 2)
			assert.Equal(t, "DEAD", result.Entries[0].Status)
			assert.Equal(t, "tenant.created", result.Entries[0].EventType)
			repo.AssertExpectations(t)
		})
	}

	t.Run("repository error", func(t *testing.T) {
		repo := new(MockOutboxRepository)
		service := NewOutboxService(repo, zap.NewNop())
		repo.On("FindDead", ctx, 1, 20).Return(nil, int64(0), shared.ErrDatabase)

		_, err := service.GetDeadLetterEntries(ctx, OutboxFilter{})
		assert.ErrorIs(t, err, shared.ErrDatabase)
	})
}

func TestOutboxService_GetEntry(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		repo := new(MockOutboxRepository)
		service := NewOutboxService(repo, zap.NewNop())
		entry := newDeadEntry()
		repo.On("FindByID", ctx, entry.ID).Return(entry, nil)

		dto, err := service.GetEntry(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, entry.EventID, dto.EventID)
		assert.Equal(t, 1, dto.SchemaVersion)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(MockOutboxRepository)
		service := NewOutboxService(repo, zap.NewNop())
		id := uuid.New()
		repo.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

		_, err := service.GetEntry(ctx, id)
		var notFound *shared.NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "OutboxEntry", notFound.EntityType)
	})

	t.Run("database error", func(t *testing.T) {
		repo := new(MockOutboxRepository)
		service := NewOutboxService(repo, zap.NewNop())
		id := uuid.New()
		repo.On("FindByID", ctx, id).Return(nil, shared.ErrDatabase)

		_, err := service.GetEntry(ctx, id)
		assert.ErrorIs(t, err, shared.ErrDatabase)
		assert.NotErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestOutboxService_RetryDeadEntry(t *testing.T) {
	ctx := context.Background()

	t.Run("resets a dead entry", func(t *testing.T) {
		repo := new(MockOutboxRepository)
		service := NewOutboxService(repo, zap.NewNop())
		entry := newDeadEntry()
		repo.On("FindByID", ctx, entry.ID).Return(entry, nil)
		repo.On("Update", ctx, entry).Return(nil)

		dto, err := service.RetryDeadEntry(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, "PENDING", dto.Status)
		assert.Equal(t, 0, dto.RetryCount)
		assert.Empty(t, dto.LastError)
		repo.AssertExpectations(t)
	})

	t.Run("rejects an entry that is not dead", func(t *testing.T) {
		repo := new(MockOutboxRepository)
		service := NewOutboxService(repo, zap.NewNop())
		entry := newDeadEntry()
		entry.Status = shared.OutboxStatusPending
		repo.On("FindByID", ctx, entry.ID).Return(entry, nil)

		_, err := service.RetryDeadEntry(ctx, entry.ID)
		assert.ErrorIs(t, err, shared.ErrBusinessRule)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("update fails", func(t *testing.T) {
		repo := new(MockOutboxRepository)
		service := NewOutboxService(repo, zap.NewNop())
		entry := newDeadEntry()
		repo.On("FindByID", ctx, entry.ID).Return(entry, nil)
		repo.On("Update", ctx, entry).Return(shared.ErrDatabase)

		_, err := service.RetryDeadEntry(ctx, entry.ID)
		assert.ErrorIs(t, err, shared.ErrDatabase)
	})
}

func TestOutboxService_RetryAllDeadEntries(t *testing.T) {
	ctx := context.Background()

	t.Run("resets every dead entry", func(t *testing.T) {
		repo := new(MockOutboxRepository)
		service := NewOutboxService(repo, zap.NewNop())
		entries := []*shared.OutboxEntry{newDeadEntry(), newDeadEntry(), newDeadEntry()}
		repo.On("FindDead", ctx, 1, 100).Return(entries, int64(3), nil).Once()
		repo.On("Update", ctx, mock.AnythingOfType("*shared.OutboxEntry")).Return(nil)

		count, err := service.RetryAllDeadEntries(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
		for _, e := range entries {
			assert.Equal(t, shared.OutboxStatusPending, e.Status)
		}
		repo.AssertExpectations(t)
	})

	t.Run("reads the first page again after a full page", func(t *testing.T) {
		repo := new(MockOutboxRepository)
		service := NewOutboxService(repo, zap.NewNop())

		full := make([]*shared.OutboxEntry, 100)
		for i := range full {
			full[i] = newDeadEntry()
		}
		rest := []*shared.OutboxEntry{newDeadEntry()}
		repo.On("FindDead", ctx, 1, 100).Return(full, int64(101), nil).Once()
		repo.On("FindDead", ctx, 1, 100).Return(rest, int64(1), nil).Once()
		repo.On("Update", ctx, mock.AnythingOfType("*shared.OutboxEntry")).Return(nil)

		count, err := service.RetryAllDeadEntries(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(101), count)
		repo.AssertExpectations(t)
	})

	t.Run("stops when no entry could be reset", func(t *testing.T) {
		repo := new(MockOutboxRepository)
		service := NewOutboxService(repo, zap.NewNop())

		full := make([]*shared.OutboxEntry, 100)
		for i := range full {
			full[i] = newDeadEntry()
		}
		repo.On("FindDead", ctx, 1, 100).Return(full, int64(100), nil).Once()
		repo.On("Update", ctx, mock.AnythingOfType("*shared.OutboxEntry")).Return(errors.New("conn reset"))

		count, err := service.RetryAllDeadEntries(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
		repo.AssertNumberOfCalls(t, "FindDead", 1)
	})
}

func TestOutboxService_GetStats(t *testing.T) {
	ctx := context.Background()
	repo := new(MockOutboxRepository)
	service := NewOutboxService(repo, zap.NewNop())

	repo.On("CountByStatus", ctx).Return(map[shared.OutboxStatus]int64{
		shared.OutboxStatusPending:    2,
		shared.OutboxStatusProcessing: 1,
		shared.OutboxStatusSent:       3,
		shared.OutboxStatusFailed:     1,
		shared.OutboxStatusDead:       1,
	}, nil)

	stats, err := service.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Pending)
	assert.Equal(t, int64(1), stats.Processing)
	assert.Equal(t, int64(3), stats.Sent)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(1), stats.Dead)
	assert.Equal(t, int64(8), stats.Total)
	assert.Equal(t, int64(4), stats.Backlog())
}

func TestOutboxService_LogStats(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		dead      int64
		wantLevel zapcore.Level
		wantMsg   string
	}{
		{"healthy", 0, zapcore.InfoLevel, "Outbox stats"},
		{"dead letters", 2, zapcore.WarnLevel, "Outbox has dead letter entries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			repo := new(MockOutboxRepository)
			service := NewOutboxService(repo, zap.New(core))
			repo.On("CountByStatus", ctx).Return(map[shared.OutboxStatus]int64{
				shared.OutboxStatusPending: 1,
				shared.OutboxStatusDead:    tt.dead,
			}, nil)

			require.NoError(t, service.LogStats(ctx))

			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, tt.wantLevel, entry.Level)
			assert.Equal(t, tt.wantMsg, entry.Message)
			assert.Equal(t, tt.dead, entry.ContextMap()["dead"])
		})
	}

	t.Run("stats failure", func(t *testing.T) {
		repo := new(MockOutboxRepository)
		service := NewOutboxService(repo, zap.NewNop())
		repo.On("CountByStatus", ctx).Return(nil, shared.ErrDatabase)

		assert.ErrorIs(t, service.LogStats(ctx), shared.ErrDatabase)
	})
}
