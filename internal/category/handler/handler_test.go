package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"fleetworks/internal/category"
	"fleetworks/pkg/testutil"
)

// =============================================================================
// Category Handler Test Suite
// =============================================================================

type CategoryHandlerSuite struct {
	suite.Suite
	store  *category.InMemoryStore
	router *chi.Mux
	now    time.Time
}

func TestCategoryHandlerSuite(t *testing.T) {
	suite.Run(t, new(CategoryHandlerSuite))
}

func (s *CategoryHandlerSuite) SetupTest() {
	s.store = category.NewInMemoryStore()
	s.now = time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service, err := category.NewService(s.store, logger)
	s.Require().NoError(err)

	s.router = chi.NewRouter()
	New(service, logger).Register(s.router)
}

func (s *CategoryHandlerSuite) request(method, path string, body any) *http.Request {
	req := testutil.NewJSONRequest(s.T(), method, path, body)
	return testutil.AtTime(testutil.AsUser(req, "admin1"), s.now)
}

func (s *CategoryHandlerSuite) TestCreateAndGet() {
	create := Request{
		Name:           "mot",
		ThresholdType:  "date",
		AppliesTo:      []string{"vehicle"},
		Responsibility: "office",
		Visible:        true,
		RemindInApp:    true,
		Source:         "test_history",
	}

	rr := testutil.DoRequest(s.router, s.request(http.MethodPost, "/categories", create))
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)

	created := testutil.UnmarshalResponse[Response](s.T(), rr)
	s.Equal("mot", created.Name)
	s.True(created.Active)
	s.False(created.ID.IsNil())

	rr = testutil.DoRequest(s.router, s.request(http.MethodGet, "/categories/"+created.ID.String(), nil))
	testutil.AssertStatusOK(s.T(), rr)
	got := testutil.UnmarshalResponse[Response](s.T(), rr)
	s.Equal(created.ID, got.ID)
	s.Equal("test_history", got.Source)
}

func (s *CategoryHandlerSuite) TestCreateRejectsBadConfiguration() {
	create := Request{
		Name:           "mystery",
		ThresholdType:  "fortnights",
		AppliesTo:      []string{"vehicle"},
		Responsibility: "office",
	}

	rr := testutil.DoRequest(s.router, s.request(http.MethodPost, "/categories", create))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
}

func (s *CategoryHandlerSuite) TestListFiltersByClass() {
	for _, c := range []Request{
		{Name: "mot", ThresholdType: "date", AppliesTo: []string{"vehicle"}, Responsibility: "office"},
		{Name: "loler", ThresholdType: "date", AppliesTo: []string{"plant"}, Responsibility: "workshop"},
	} {
		rr := testutil.DoRequest(s.router, s.request(http.MethodPost, "/categories", c))
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	}

	rr := testutil.DoRequest(s.router, s.request(http.MethodGet, "/categories?class=plant", nil))
	testutil.AssertStatusOK(s.T(), rr)
	got := testutil.UnmarshalResponse[[]Response](s.T(), rr)
	s.Require().Len(*got, 1)
	s.Equal("loler", (*got)[0].Name)
}

func (s *CategoryHandlerSuite) TestDeactivateRemovesFromList() {
	rr := testutil.DoRequest(s.router, s.request(http.MethodPost, "/categories", Request{
		Name: "mot", ThresholdType: "date", AppliesTo: []string{"vehicle"}, Responsibility: "office",
	}))
	created := testutil.UnmarshalResponse[Response](s.T(), rr)

	rr = testutil.DoRequest(s.router, s.request(http.MethodPost, "/categories/"+created.ID.String()+"/deactivate", nil))
	testutil.AssertStatus(s.T(), rr, http.StatusNoContent)

	rr = testutil.DoRequest(s.router, s.request(http.MethodGet, "/categories", nil))
	got := testutil.UnmarshalResponse[[]Response](s.T(), rr)
	s.Empty(*got)

	// The row survives for history references.
	rr = testutil.DoRequest(s.router, s.request(http.MethodGet, "/categories/"+created.ID.String(), nil))
	testutil.AssertStatusOK(s.T(), rr)
}

func (s *CategoryHandlerSuite) TestUnauthenticatedRejected() {
	req := testutil.NewRequest(s.T(), http.MethodGet, "/categories")
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
}
