package api_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"postbrowser/internal/api"
	"postbrowser/internal/api/handler/pagehandler"
	"postbrowser/internal/app"
	"postbrowser/internal/fetcher"
	"postbrowser/pkg/domain"
	"postbrowser/pkg/logger"
	"postbrowser/pkg/metrics"
	"postbrowser/pkg/serrors"
	"strings"
	"testing"
	"time"

	mockplaceholder "postbrowser/pkg/placeholder/mock"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	logger.Setup(logger.TestEnvironment)
	m.Run()
}

func newTestServer(t *testing.T) (*mockplaceholder.MockClient, *httptest.Server) {
	t.Helper()

	reg := prometheus.NewRegistry()
	mp, err := metrics.NewMeterProvider(reg)
	require.NoError(t, err)

	client := mockplaceholder.NewMockClient(gomock.NewController(t))
	f, err := fetcher.New(client, fetcher.Options{MeterProvider: mp})
	require.NoError(t, err)

	page := app.New(f, app.Options{
		Title:        "Employee Posts",
		SelectAction: pagehandler.SelectPath,
		ToggleAction: pagehandler.TogglePath,
		Registerer:   reg,
	})
	t.Cleanup(page.Close)

	srv := api.NewServer(api.Deps{Page: page, Gatherer: reg}, api.Options{
		MetricsPath:    "/metrics",
		RequestTimeout: 5 * time.Second,
	})
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	return client, ts
}

func noRedirect(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

func TestServer_SelectThenToggle(t *testing.T) {
	client, ts := newTestServer(t)
	client.EXPECT().Users(gomock.Any()).Return([]domain.User{{ID: 1, Name: "A"}}, nil)
	client.EXPECT().UserPosts(gomock.Any(), domain.UserID(1)).
		Return([]domain.Post{{ID: 10, UserID: 1, Title: "T", Body: "B"}}, nil)
	client.EXPECT().User(gomock.Any(), domain.UserID(1)).
		Return(&domain.User{ID: 1, Name: "A", Company: domain.Company{Name: "Co", CatchPhrase: "Phrase"}}, nil)
	client.EXPECT().PostComments(gomock.Any(), domain.PostID(10)).
		Return([]domain.Comment{{ID: 1, PostID: 10, Name: "C", Body: "Body", Email: "e@x.com"}}, nil)

	hc := &http.Client{CheckRedirect: noRedirect}

	res, err := hc.PostForm(ts.URL+"/select", url.Values{"userId": {""}})
	require.NoError(t, err)
	_ = res.Body.Close()
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	require.NotEmpty(t, res.Header.Get("X-Request-Id"))

	body := get(t, ts.URL+"/")
	require.Contains(t, body, "<p>Author: A with Co</p>")
	require.Contains(t, body, `formaction="/posts/10/toggle"`)
	require.Contains(t, body, `class="comments hide"`)

	res, err = hc.Post(ts.URL+"/posts/10/toggle", "application/x-www-form-urlencoded", nil)
	require.NoError(t, err)
	_ = res.Body.Close()
	require.Equal(t, http.StatusSeeOther, res.StatusCode)

	body = get(t, ts.URL+"/")
	require.Contains(t, body, "Hide Comments")
	require.Contains(t, body, `<section data-post-id="10" class="comments">`)

	state := get(t, ts.URL+"/v1/state")
	require.Contains(t, state, `"state":"RENDERED"`)
	require.Contains(t, state, `"commentsShown":true`)

	m := get(t, ts.URL+"/metrics")
	require.Contains(t, m, `postbrowser_generations_total{state="RENDERED"} 1`)
	require.Contains(t, m, "fetcher_requests_total")
}

func TestServer_IndexRetriesEmployeeLoad(t *testing.T) {
	client, ts := newTestServer(t)
	gomock.InOrder(
		client.EXPECT().Users(gomock.Any()).Return(nil, serrors.With(serrors.ErrUpstream, "status 503")),
		client.EXPECT().Users(gomock.Any()).Return([]domain.User{{ID: 1, Name: "Leanne Graham"}}, nil),
	)

	require.NotContains(t, get(t, ts.URL+"/"), "Leanne Graham")
	require.Contains(t, get(t, ts.URL+"/"), `<option value="1">Leanne Graham</option>`)
	// loaded once, not again
	require.Contains(t, get(t, ts.URL+"/v1/state"), `"users":1`)
}

func TestServer_Docs(t *testing.T) {
	_, ts := newTestServer(t)

	require.Contains(t, get(t, ts.URL+"/specs/v1.yaml"), "openapi: 3.0.3")
	require.NotEmpty(t, get(t, ts.URL+"/v1/docs/"))
}

func TestServer_UnknownToggle(t *testing.T) {
	_, ts := newTestServer(t)

	res, err := http.Post(ts.URL+"/v1/posts/3/toggle", "application/json", strings.NewReader(""))
	require.NoError(t, err)
	_ = res.Body.Close()
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func get(t *testing.T, u string) string {
	t.Helper()

	res, err := http.Get(u) //nolint: noctx
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode, u)

	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	return string(b)
}
