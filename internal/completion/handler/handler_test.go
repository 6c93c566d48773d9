package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"fleetworks/internal/completion"
	"fleetworks/internal/completion/handler/mocks"
	"fleetworks/internal/task"
	"fleetworks/pkg/domain"
	dErrors "fleetworks/pkg/domain-errors"
	"fleetworks/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/completion-mocks.go -package=mocks Service
type CompletionHandlerSuite struct {
	suite.Suite
}

func TestCompletionHandlerSuite(t *testing.T) {
	suite.Run(t, new(CompletionHandlerSuite))
}

func newTestHandler(t *testing.T) (*mocks.MockService, *chi.Mux) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := New(mockService, logger)
	r := chi.NewRouter()
	handler.Register(r)
	return mockService, r
}

func authenticated(req *http.Request) *http.Request {
	ctx := requestcontext.WithActor(req.Context(), domain.UserActor("mechanic7"))
	return req.WithContext(ctx)
}

func (s *CompletionHandlerSuite) TestHandleComplete() {
	mockService, r := newTestHandler(s.T())
	taskID := domain.TaskID(uuid.New())

	wantReq := completion.Request{
		Updates:      []completion.FieldUpdate{{FieldName: "next_service_mileage", RawValue: "125000"}},
		MarkComplete: true,
	}
	mockService.EXPECT().Complete(gomock.Any(), taskID, wantReq).Return(&completion.Result{
		Task: &task.Task{ID: taskID, Status: task.StatusCompleted, CompletedBy: "mechanic7"},
	}, nil)

	body, err := json.Marshal(wantReq)
	require.NoError(s.T(), err)

	req := authenticated(httptest.NewRequest(http.MethodPost, "/tasks/"+taskID.String()+"/complete", bytes.NewReader(body)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(s.T(), http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	taskResp := resp["task"].(map[string]any)
	assert.Equal(s.T(), "completed", taskResp["status"])
	assert.Equal(s.T(), "mechanic7", taskResp["completed_by"])
}

func (s *CompletionHandlerSuite) TestRejectsUnauthenticated() {
	_, r := newTestHandler(s.T())

	req := httptest.NewRequest(http.MethodPost, "/tasks/"+uuid.NewString()+"/complete", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func (s *CompletionHandlerSuite) TestValidationErrorNamesFields() {
	mockService, r := newTestHandler(s.T())
	taskID := domain.TaskID(uuid.New())

	mockService.EXPECT().Complete(gomock.Any(), taskID, gomock.Any()).
		Return(nil, dErrors.NewValidation("completion fields invalid", "next_service_mileage"))

	req := authenticated(httptest.NewRequest(http.MethodPost, "/tasks/"+taskID.String()+"/complete",
		bytes.NewReader([]byte(`{"updates":[{"field_name":"next_service_mileage","raw_value":"-5"}],"mark_complete":true}`))))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	assert.Contains(s.T(), w.Body.String(), "next_service_mileage")
}
