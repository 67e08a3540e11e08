package controllers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"github.com/npolukhin/shortlink/internal/config"
	"github.com/npolukhin/shortlink/internal/controllers/middlewares"
	"github.com/npolukhin/shortlink/internal/services"
	"github.com/npolukhin/shortlink/internal/services/smocks"
	"github.com/npolukhin/shortlink/internal/tokens"
)

const testAdminSecret = "s3cret-password"

type AdminControllerSuite struct {
	suite.Suite
	statsMock *smocks.StatsMock
	router    *gin.Engine
}

func (s *AdminControllerSuite) SetupTest() {
	s.statsMock = new(smocks.StatsMock)
	s.router = s.buildRouter(testAdminSecret)
}

func (s *AdminControllerSuite) buildRouter(secret string) *gin.Engine {
	return SetupRouter(RouterParams{
		LinkService: new(smocks.LinkMock),
		StatsReader: s.statsMock,
		PingService: new(smocks.PingMock),
		AppConf: config.Config{
			ServerAddress: ":80",
			BaseURL:       &url.URL{Scheme: "http", Host: "test.com:8080"},
			AdminSecret:   secret,
			SessionMaxAge: 2 * time.Hour,
			Logger:        logrus.New(),
		},
		Logger: logrus.New(),
	})
}

func (s *AdminControllerSuite) TestLogin_JSON() {
	tests := []struct {
		name       string
		payload    string
		wantStatus int
		wantCookie bool
	}{
		{name: "valid password", payload: `{"password": "` + testAdminSecret + `"}`, wantStatus: http.StatusOK, wantCookie: true},
		{name: "wrong password", payload: `{"password": "guess"}`, wantStatus: http.StatusUnauthorized},
		{name: "empty password", payload: `{}`, wantStatus: http.StatusUnauthorized},
		{name: "broken json", payload: `{pass`, wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			res := s.request(requestOpts{
				Method:      http.MethodPost,
				URI:         middlewares.LoginPath,
				Body:        tt.payload,
				ContentType: "application/json",
			})
			defer res.Body.Close()

			s.Equal(tt.wantStatus, res.StatusCode)
			if tt.wantCookie {
				s.NotEmpty(s.sessionCookie(res))
			} else {
				s.Empty(s.sessionCookie(res))
			}
		})
	}
}

func (s *AdminControllerSuite) TestLogin_Form() {
	form := url.Values{"password": {testAdminSecret}}
	res := s.request(requestOpts{
		Method:      http.MethodPost,
		URI:         middlewares.LoginPath,
		Body:        form.Encode(),
		ContentType: "application/x-www-form-urlencoded",
	})
	defer res.Body.Close()

	s.Equal(http.StatusOK, res.StatusCode)
	s.NotEmpty(s.sessionCookie(res))
}

func (s *AdminControllerSuite) TestLogin_NotConfigured() {
	router := s.buildRouter("")

	res := s.requestTo(router, requestOpts{
		Method:      http.MethodPost,
		URI:         middlewares.LoginPath,
		Body:        `{"password": ""}`,
		ContentType: "application/json",
	})
	defer res.Body.Close()
	s.Equal(http.StatusServiceUnavailable, res.StatusCode)

	// закрытые ручки при ненастроенной админке тоже недоступны
	res = s.requestTo(router, requestOpts{Method: http.MethodGet, URI: "/api/admin/overview"})
	defer res.Body.Close()
	s.Equal(http.StatusServiceUnavailable, res.StatusCode)
}

func (s *AdminControllerSuite) TestLogout() {
	res := s.request(requestOpts{Method: http.MethodGet, URI: "/admin/logout"})
	defer res.Body.Close()

	s.Equal(http.StatusFound, res.StatusCode)
	s.Equal(middlewares.LoginPath, res.Header.Get("Location"))

	// кука затерта
	for _, c := range res.Cookies() {
		if c.Name == middlewares.SessionCookieName {
			s.Empty(c.Value)
			s.LessOrEqual(c.MaxAge, 0)
		}
	}
}

func (s *AdminControllerSuite) TestAdminAPI_Unauthorized() {
	tests := []struct {
		name   string
		cookie string
	}{
		{name: "no cookie", cookie: ""},
		{name: "garbage cookie", cookie: "not-a-token"},
		{name: "expired token", cookie: tokens.NewSessionToken([]byte(testAdminSecret), time.Now().Add(-3*time.Hour))},
		{name: "foreign secret", cookie: tokens.NewSessionToken([]byte("other-secret"), time.Now())},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			res := s.request(requestOpts{Method: http.MethodGet, URI: "/api/admin/overview", Cookie: tt.cookie})
			defer res.Body.Close()

			s.Equal(http.StatusUnauthorized, res.StatusCode)
		})
	}
	s.statsMock.AssertNotCalled(s.T(), "Overview")
}

func (s *AdminControllerSuite) TestAdminAPI_BrowserRedirectsToLogin() {
	res := s.request(requestOpts{
		Method: http.MethodGet,
		URI:    "/api/admin/overview",
		Accept: "text/html,application/xhtml+xml",
	})
	defer res.Body.Close()

	s.Equal(http.StatusFound, res.StatusCode)
	s.Equal(middlewares.LoginPath, res.Header.Get("Location"))
}

func (s *AdminControllerSuite) TestOverview() {
	s.statsMock.On("Overview").Return(&services.Overview{
		TotalLinks:      2,
		TotalClicks:     15,
		ClicksLast7Days: 4,
		HotLinks: []services.LinkSummary{
			{ID: 1, Code: "abc123", Destination: "https://test.com", ClickCount: 10},
		},
	}, nil)

	res := s.request(requestOpts{Method: http.MethodGet, URI: "/api/admin/overview", Cookie: s.validToken()})
	defer res.Body.Close()

	s.Equal(http.StatusOK, res.StatusCode)
	body, _ := io.ReadAll(res.Body)
	s.Contains(string(body), `"totalLinks":2`)
	s.Contains(string(body), `"clicksLast7Days":4`)
	s.Contains(string(body), `"abc123"`)
}

func (s *AdminControllerSuite) TestOverview_ServiceFailure() {
	s.statsMock.On("Overview").Return(nil, services.ErrUnknown)

	res := s.request(requestOpts{Method: http.MethodGet, URI: "/api/admin/overview", Cookie: s.validToken()})
	defer res.Body.Close()

	s.Equal(http.StatusInternalServerError, res.StatusCode)
}

func (s *AdminControllerSuite) TestDetail() {
	s.statsMock.On("Detail", uint(42)).Return(&services.LinkDetail{
		LinkSummary: services.LinkSummary{ID: 42, Code: "abc123", ClickCount: 3},
	}, nil)
	s.statsMock.On("Detail", uint(99)).Return(nil, services.ErrRecordNotFound)

	tests := []struct {
		name       string
		uri        string
		wantStatus int
	}{
		{name: "found", uri: "/api/admin/links/42", wantStatus: http.StatusOK},
		{name: "missing", uri: "/api/admin/links/99", wantStatus: http.StatusNotFound},
		{name: "non numeric id", uri: "/api/admin/links/abc", wantStatus: http.StatusNotFound},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			res := s.request(requestOpts{Method: http.MethodGet, URI: tt.uri, Cookie: s.validToken()})
			defer res.Body.Close()

			s.Equal(tt.wantStatus, res.StatusCode)
		})
	}
	s.statsMock.AssertNumberOfCalls(s.T(), "Detail", 2)
}

func (s *AdminControllerSuite) TestSearch() {
	s.statsMock.On("Search", "docs").Return([]services.LinkSummary{
		{ID: 1, Code: "docs42", Destination: "https://docs.test.com"},
	}, nil)

	res := s.request(requestOpts{Method: http.MethodGet, URI: "/api/admin/search?q=docs", Cookie: s.validToken()})
	defer res.Body.Close()

	s.Equal(http.StatusOK, res.StatusCode)
	body, _ := io.ReadAll(res.Body)
	s.Contains(string(body), `"docs42"`)
}

func (s *AdminControllerSuite) validToken() string {
	return tokens.NewSessionToken([]byte(testAdminSecret), time.Now())
}

// sessionCookie возвращает значение сессионной куки из ответа.
func (s *AdminControllerSuite) sessionCookie(res *http.Response) string {
	for _, c := range res.Cookies() {
		if c.Name == middlewares.SessionCookieName {
			return c.Value
		}
	}
	return ""
}

type requestOpts struct {
	Method      string
	URI         string
	Body        string
	ContentType string
	Cookie      string
	Accept      string
}

func (s *AdminControllerSuite) request(opts requestOpts) *http.Response {
	return s.requestTo(s.router, opts)
}

func (s *AdminControllerSuite) requestTo(router *gin.Engine, opts requestOpts) *http.Response {
	var body io.Reader
	if opts.Body != "" {
		body = strings.NewReader(opts.Body)
	}
	request := httptest.NewRequest(opts.Method, opts.URI, body)
	if opts.ContentType != "" {
		request.Header.Set("Content-Type", opts.ContentType)
	}
	if opts.Accept != "" {
		request.Header.Set("Accept", opts.Accept)
	}
	if opts.Cookie != "" {
		request.AddCookie(&http.Cookie{Name: middlewares.SessionCookieName, Value: opts.Cookie})
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder.Result()
}

func TestAdminControllerSuite(t *testing.T) {
	suite.Run(t, new(AdminControllerSuite))
}
