package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"finance-dashboard/internal/model"
)

type mockAssetStore struct {
	mock.Mock
}

func (m *mockAssetStore) Create(ctx context.Context, a model.Asset) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockAssetStore) FindByID(ctx context.Context, id string) (model.Asset, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Asset), args.Error(1)
}

func (m *mockAssetStore) List(ctx context.Context, query model.AssetQuery) ([]model.Asset, int, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.Asset), args.Int(1), args.Error(2)
}

func (m *mockAssetStore) Update(ctx context.Context, a model.Asset) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockAssetStore) SetSoftDeleted(ctx context.Context, id string, deleted bool) error {
	return m.Called(ctx, id, deleted).Error(0)
}

func (m *mockAssetStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockTransactionStore struct {
	mock.Mock
}

func (m *mockTransactionStore) Create(ctx context.Context, t model.Transaction) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockTransactionStore) FindByID(ctx context.Context, id string) (model.Transaction, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Transaction), args.Error(1)
}

func (m *mockTransactionStore) List(ctx context.Context, query model.TransactionQuery) ([]model.Transaction, int, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.Transaction), args.Int(1), args.Error(2)
}

func (m *mockTransactionStore) Update(ctx context.Context, t model.Transaction) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockTransactionStore) SetSoftDeleted(ctx context.Context, id string, deleted bool) error {
	return m.Called(ctx, id, deleted).Error(0)
}

func (m *mockTransactionStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockPreferenceStore struct {
	mock.Mock
}

func (m *mockPreferenceStore) Get(ctx context.Context, userID string) (model.Preferences, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.Preferences), args.Error(1)
}

func (m *mockPreferenceStore) Upsert(ctx context.Context, p model.Preferences) error {
	return m.Called(ctx, p).Error(0)
}

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) FindByID(ctx context.Context, id string) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUserStore) FindByUsername(ctx context.Context, username string) (model.User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUserStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserStore) Create(ctx context.Context, u model.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserStore) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockTokenStore struct {
	mock.Mock
}

func (m *mockTokenStore) Store(ctx context.Context, token model.RefreshToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockTokenStore) Validate(ctx context.Context, tokenID string) (string, error) {
	args := m.Called(ctx, tokenID)
	return args.String(0), args.Error(1)
}

func (m *mockTokenStore) Revoke(ctx context.Context, tokenID string) error {
	return m.Called(ctx, tokenID).Error(0)
}

func (m *mockTokenStore) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTokenStore) CleanExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockController struct {
	mock.Mock
}

func (m *mockController) Start(ctx context.Context, target model.DeletionTarget, actorID string) (model.DeletionSession, error) {
	args := m.Called(ctx, target, actorID)
	return args.Get(0).(model.DeletionSession), args.Error(1)
}

func (m *mockController) Undo(ctx context.Context, kind model.DeletionKind, id string) (model.DeletionSession, error) {
	args := m.Called(ctx, kind, id)
	return args.Get(0).(model.DeletionSession), args.Error(1)
}

func (m *mockController) ForceCommit(ctx context.Context, kind model.DeletionKind, id string) (model.DeletionSession, error) {
	args := m.Called(ctx, kind, id)
	return args.Get(0).(model.DeletionSession), args.Error(1)
}

func (m *mockController) Active() []model.DeletionSession {
	return m.Called().Get(0).([]model.DeletionSession)
}

func (m *mockController) Get(kind model.DeletionKind, id string) (model.DeletionSession, bool) {
	args := m.Called(kind, id)
	return args.Get(0).(model.DeletionSession), args.Bool(1)
}

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Target(ctx context.Context, userID string, id string) (model.DeletionTarget, error) {
	args := m.Called(ctx, userID, id)
	return args.Get(0).(model.DeletionTarget), args.Error(1)
}

type mockDeletionLog struct {
	mock.Mock
}

func (m *mockDeletionLog) Create(ctx context.Context, entry model.DeletionLogEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockDeletionLog) List(ctx context.Context, query model.DeletionLogQuery) ([]model.DeletionLogEntry, int, error) {
	args := m.Called(ctx, query)
	return args.Get(0).([]model.DeletionLogEntry), args.Int(1), args.Error(2)
}
