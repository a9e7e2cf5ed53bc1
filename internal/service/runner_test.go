package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gaetanof/frontegg-bulk-user-actions/internal/client"
	"github.com/gaetanof/frontegg-bulk-user-actions/internal/config"
	"github.com/gaetanof/frontegg-bulk-user-actions/internal/frontegg"
	"github.com/gaetanof/frontegg-bulk-user-actions/internal/metrics"
	"github.com/gaetanof/frontegg-bulk-user-actions/internal/model"
)

// MockUserAPI is a mock implementation of UserAPI
type MockUserAPI struct {
	mock.Mock
}

func (m *MockUserAPI) Authenticate(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockUserAPI) ResolveUserID(ctx context.Context, identifier string) (string, bool) {
	args := m.Called(ctx, identifier)
	return args.String(0), args.Bool(1)
}

func (m *MockUserAPI) LockUser(ctx context.Context, userID string) bool {
	args := m.Called(ctx, userID)
	return args.Bool(0)
}

func (m *MockUserAPI) DeleteUser(ctx context.Context, userID string) bool {
	args := m.Called(ctx, userID)
	return args.Bool(0)
}

func newRunner(api UserAPI, identifiers []string) *BatchRunner {
	return NewBatchRunner(api, identifiers, metrics.NewMetrics(), zap.NewNop())
}

func TestBatchRunner_InvalidAction(t *testing.T) {
	api := new(MockUserAPI)
	runner := newRunner(api, []string{"user@example.com"})

	report, err := runner.Run(context.Background(), model.Action("suspend"), true)

	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrInvalidAction)
	api.AssertExpectations(t) // nothing may be called for an invalid action
}

func TestBatchRunner_EmptyIdentifierList(t *testing.T) {
	api := new(MockUserAPI)
	runner := newRunner(api, nil)

	report, err := runner.Run(context.Background(), model.ActionLock, true)

	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrEmptyIdentifierList)
	api.AssertExpectations(t)
}

func TestBatchRunner_AuthFailureAbortsRun(t *testing.T) {
	api := new(MockUserAPI)
	authErr := &frontegg.AuthError{StatusCode: 401, Body: "bad credentials"}
	api.On("Authenticate", mock.Anything).Return("", authErr)

	runner := newRunner(api, []string{"user@example.com"})
	report, err := runner.Run(context.Background(), model.ActionLock, false)

	assert.Nil(t, report)

	var gotAuthErr *frontegg.AuthError
	require.True(t, errors.As(err, &gotAuthErr))

	api.AssertExpectations(t)
	api.AssertNotCalled(t, "ResolveUserID", mock.Anything, mock.Anything)
}

func TestBatchRunner_DryRunNeverExecutes(t *testing.T) {
	api := new(MockUserAPI)
	api.On("Authenticate", mock.Anything).Return("tok", nil)

	idA := uuid.New().String()
	api.On("ResolveUserID", mock.Anything, "a@example.com").Return(idA, true)
	api.On("ResolveUserID", mock.Anything, idA).Return(idA, true)

	runner := newRunner(api, []string{"a@example.com", idA})
	report, err := runner.Run(context.Background(), model.ActionDelete, true)

	require.NoError(t, err)
	assert.True(t, report.Success)
	assert.True(t, report.DryRun)
	assert.Equal(t, 2, report.ProcessedCount)
	assert.Equal(t, 0, report.FailedCount)
	for _, rec := range report.Processed {
		assert.Equal(t, model.StatusDryRun, rec.Status)
		assert.Equal(t, idA, rec.UserID)
	}

	api.AssertExpectations(t)
	api.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything)
	api.AssertNotCalled(t, "LockUser", mock.Anything, mock.Anything)
}

func TestBatchRunner_MixedOutcomes(t *testing.T) {
	api := new(MockUserAPI)
	api.On("Authenticate", mock.Anything).Return("tok", nil)

	okID := uuid.New().String()
	rejectedID := uuid.New().String()
	api.On("ResolveUserID", mock.Anything, "ok@example.com").Return(okID, true)
	api.On("ResolveUserID", mock.Anything, "ghost@example.com").Return("", false)
	api.On("ResolveUserID", mock.Anything, "rejected@example.com").Return(rejectedID, true)
	api.On("LockUser", mock.Anything, okID).Return(true)
	api.On("LockUser", mock.Anything, rejectedID).Return(false)

	runner := newRunner(api, []string{"ok@example.com", "ghost@example.com", "rejected@example.com"})
	report, err := runner.Run(context.Background(), model.ActionLock, false)

	require.NoError(t, err)
	assert.False(t, report.Success)
	assert.Equal(t, 1, report.ProcessedCount)
	assert.Equal(t, 2, report.FailedCount)
	assert.Len(t, report.Processed, report.ProcessedCount)
	assert.Len(t, report.Failed, report.FailedCount)

	assert.Equal(t, model.OutcomeRecord{
		Identifier: "ok@example.com",
		UserID:     okID,
		Action:     model.ActionLock,
		Status:     model.StatusSuccess,
	}, report.Processed[0])

	assert.Equal(t, model.OutcomeRecord{
		Identifier: "ghost@example.com",
		Reason:     model.ReasonNotFound,
	}, report.Failed[0])

	assert.Equal(t, model.OutcomeRecord{
		Identifier: "rejected@example.com",
		UserID:     rejectedID,
		Action:     model.ActionLock,
		Status:     model.StatusFailed,
	}, report.Failed[1])

	api.AssertExpectations(t)
}

func TestBatchRunner_DeleteDispatch(t *testing.T) {
	api := new(MockUserAPI)
	api.On("Authenticate", mock.Anything).Return("tok", nil)

	id := uuid.New().String()
	api.On("ResolveUserID", mock.Anything, id).Return(id, true)
	api.On("DeleteUser", mock.Anything, id).Return(true)

	runner := newRunner(api, []string{id})
	report, err := runner.Run(context.Background(), model.ActionDelete, false)

	require.NoError(t, err)
	assert.True(t, report.Success)

	api.AssertExpectations(t)
	api.AssertNotCalled(t, "LockUser", mock.Anything, mock.Anything)
}

func TestBatchRunner_PreservesInputOrder(t *testing.T) {
	api := new(MockUserAPI)
	api.On("Authenticate", mock.Anything).Return("tok", nil)

	identifiers := []string{"c@example.com", "a@example.com", "b@example.com"}
	for _, identifier := range identifiers {
		api.On("ResolveUserID", mock.Anything, identifier).Return(uuid.New().String(), true)
	}

	runner := newRunner(api, identifiers)
	report, err := runner.Run(context.Background(), model.ActionLock, true)

	require.NoError(t, err)
	require.Len(t, report.Processed, 3)
	for i, identifier := range identifiers {
		assert.Equal(t, identifier, report.Processed[i].Identifier)
	}
}

// runnerBackend is a minimal provider for end-to-end runs.
type runnerBackend struct {
	server *httptest.Server

	mu     sync.Mutex
	users  map[string]string
	locked []string
}

func newRunnerBackend(t *testing.T) *runnerBackend {
	t.Helper()
	b := &runnerBackend{users: map[string]string{}}

	router := mux.NewRouter()
	router.HandleFunc("/auth/vendor/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": "e2e-token"})
	}).Methods(http.MethodPost)
	router.HandleFunc("/identity/resources/users/v1/email", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		id, ok := b.users[r.URL.Query().Get("email")]
		b.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": id})
	}).Methods(http.MethodGet)
	router.HandleFunc("/identity/resources/users/v1/{userId}/lock", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.locked = append(b.locked, mux.Vars(r)["userId"])
		b.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodPost)

	b.server = httptest.NewServer(router)
	t.Cleanup(b.server.Close)
	return b
}

func TestBatchRunner_EndToEndLock(t *testing.T) {
	backend := newRunnerBackend(t)
	emailID := uuid.New().String()
	directID := uuid.New().String()
	backend.users["user@example.com"] = emailID

	api := client.New(config.HTTPConfig{
		RateLimitDelay: 0,
		MaxRetries:     1,
		RequestTimeout: 5 * time.Second,
	}, metrics.NewMetrics(), zap.NewNop())
	provider := frontegg.NewClientWithGateway(backend.server.URL,
		model.Credentials{ClientID: "cid", Secret: "sec"}, api, zap.NewNop())

	runner := NewBatchRunner(provider,
		[]string{"user@example.com", directID, "ghost@example.com"},
		metrics.NewMetrics(), zap.NewNop())

	report, err := runner.Run(context.Background(), model.ActionLock, false)
	require.NoError(t, err)

	assert.False(t, report.Success)
	assert.Equal(t, 2, report.ProcessedCount)
	assert.Equal(t, 1, report.FailedCount)
	assert.Equal(t, model.ReasonNotFound, report.Failed[0].Reason)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Equal(t, []string{emailID, directID}, backend.locked)
}
