package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"dashboard-service/internal/dashboard/handler/mocks"
	"dashboard-service/internal/dashboard/models"
	"dashboard-service/internal/platform/middleware"
	dErrors "dashboard-service/pkg/domain-errors"
	"dashboard-service/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type HandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	r.Use(middleware.RequestContext)
	New(s.service, logger).Register(r)
	s.router = r
}

func sampleData() *models.ConfigData {
	return &models.ConfigData{
		Layout: models.Layout{
			TopRow: []models.Widget{{ID: "w1", Type: "kpi", Position: 1, IsVisible: true}},
		},
		Preferences: models.Preferences{Theme: "dark"},
	}
}

func (s *HandlerSuite) TestEffective() {
	s.Run("returns the merged view", func() {
		s.service.EXPECT().Effective(gomock.Any(), "u1", "c1").Return(&models.EffectiveConfig{
			UserID:         "u1",
			CompanyID:      "c1",
			Data:           *sampleData(),
			UserVersion:    2,
			CompanyVersion: 5,
			Source:         models.SourceMerged,
		}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/dashboard/effective?user_id=u1&company_id=c1", nil))

		s.Equal(http.StatusOK, rr.Code)
		env := testutil.DecodeEnvelope[models.EffectiveConfig](s.T(), rr)
		s.True(env.Success)
		s.Equal(models.SourceMerged, env.Data.Source)
		s.Equal(2, env.Data.UserVersion)
		s.Equal(5, env.Data.CompanyVersion)
		s.Equal("dark", env.Data.Data.Preferences.Theme)
	})

	s.Run("maps not found to 404", func() {
		s.service.EXPECT().Effective(gomock.Any(), "u1", "").
			Return(nil, dErrors.New(dErrors.CodeNotFound, "no configuration available"))

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/dashboard/effective?user_id=u1", nil))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
	})
}

func (s *HandlerSuite) TestSave() {
	s.Run("forwards the body and actor to the service", func() {
		companyWide := true
		expected := 4
		var got models.WriteRequest
		s.service.EXPECT().Save(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, req models.WriteRequest) (*models.DashboardConfig, error) {
				got = req
				return &models.DashboardConfig{
					ID:        uuid.New(),
					Scope:     models.ScopeCompany,
					ScopeKey:  "c1",
					CompanyID: "c1",
					Data:      req.ConfigData,
					Version:   5,
				}, nil
			})

		req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/dashboard/config", SaveConfigRequest{
			UserID:              " admin-1 ",
			CompanyID:           "c1",
			ConfigData:          sampleData(),
			IsCompanyWideUpdate: &companyWide,
			ExpectedVersion:     &expected,
		})
		rr := testutil.DoRequest(s.router, testutil.WithActor(req, "admin-1"))

		s.Equal(http.StatusOK, rr.Code)
		s.Equal("admin-1", got.UserID)
		s.Equal("admin-1", got.Actor)
		s.Equal("c1", got.CompanyID)
		s.Require().NotNil(got.IsCompanyWideUpdate)
		s.True(*got.IsCompanyWideUpdate)
		s.Require().NotNil(got.ExpectedVersion)
		s.Equal(4, *got.ExpectedVersion)
		s.Equal("w1", got.ConfigData.Layout.TopRow[0].ID)

		env := testutil.DecodeEnvelope[models.DashboardConfig](s.T(), rr)
		s.Equal(5, env.Data.Version)
		s.Equal(models.ScopeCompany, env.Data.Scope)
	})

	s.Run("rejects malformed JSON without calling the service", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPut, "/dashboard/config", "{not json"))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})

	s.Run("requires configData", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPut, "/dashboard/config", map[string]any{
			"userId": "u1",
		}))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("rejects a non-positive expectedVersion", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPut, "/dashboard/config", map[string]any{
			"userId":          "u1",
			"configData":      sampleData(),
			"expectedVersion": 0,
		}))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("maps version conflicts to 409", func() {
		s.service.EXPECT().Save(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeVersionConflict, "version conflict on user/u1: expected 1, current 2"))

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPut, "/dashboard/config", SaveConfigRequest{
			UserID:     "u1",
			ConfigData: sampleData(),
		}))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, string(dErrors.CodeVersionConflict))
	})

	s.Run("hides storage details behind 503", func() {
		s.service.EXPECT().Save(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeStorage, "pq: connection refused to 10.0.0.5"))

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPut, "/dashboard/config", SaveConfigRequest{
			UserID:     "u1",
			ConfigData: sampleData(),
		}))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusServiceUnavailable, string(dErrors.CodeStorage))
		s.NotContains(rr.Body.String(), "10.0.0.5")
	})
}

func (s *HandlerSuite) TestGet() {
	s.service.EXPECT().Get(gomock.Any(), "company", "c1").Return(&models.DashboardConfig{
		Scope:     models.ScopeCompany,
		ScopeKey:  "c1",
		CompanyID: "c1",
		Version:   3,
	}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/dashboard/config/company/c1", nil))

	s.Equal(http.StatusOK, rr.Code)
	env := testutil.DecodeEnvelope[models.DashboardConfig](s.T(), rr)
	s.Equal(3, env.Data.Version)
	s.Equal("c1", env.Data.ScopeKey)
}

func (s *HandlerSuite) TestReset() {
	s.Run("passes expected_version through", func() {
		s.service.EXPECT().ResetToDefault(gomock.Any(), "u1", gomock.Any(), "u1").
			DoAndReturn(func(_ any, _ string, expected *int, _ string) error {
				s.Require().NotNil(expected)
				s.Equal(3, *expected)
				return nil
			})

		req := testutil.NewJSONRequest(s.T(), http.MethodDelete, "/dashboard/config/user/u1?expected_version=3", nil)
		rr := testutil.DoRequest(s.router, testutil.WithActor(req, "u1"))

		s.Equal(http.StatusOK, rr.Code)
		env := testutil.DecodeEnvelope[json.RawMessage](s.T(), rr)
		s.True(env.Success)
	})

	s.Run("omitted expected_version is nil", func() {
		s.service.EXPECT().ResetToDefault(gomock.Any(), "u1", gomock.Nil(), "").Return(nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodDelete, "/dashboard/config/user/u1", nil))

		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("rejects a malformed expected_version", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodDelete, "/dashboard/config/user/u1?expected_version=abc", nil))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})
}

func (s *HandlerSuite) TestListOverrides() {
	s.service.EXPECT().ListCompanyOverrides(gomock.Any(), "c1").Return([]*models.DashboardConfig{
		{Scope: models.ScopeUser, ScopeKey: "u1", CompanyID: "c1", Version: 1},
		{Scope: models.ScopeUser, ScopeKey: "u2", CompanyID: "c1", Version: 4},
	}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/dashboard/companies/c1/overrides", nil))

	s.Equal(http.StatusOK, rr.Code)
	env := testutil.DecodeEnvelope[OverridesResponse](s.T(), rr)
	s.Equal("c1", env.Data.CompanyID)
	s.Equal(2, env.Data.Count)
	s.Equal("u2", env.Data.Overrides[1].ScopeKey)
}
