package web

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazhate/tisscal/internal/feed"
	"github.com/tazhate/tisscal/internal/rooms"
	"github.com/tazhate/tisscal/internal/service"
	"github.com/tazhate/tisscal/internal/storage"
)

const sampleICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//TU Wien//TISS//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:orig@tiss\r\n" +
	"DTSTAMP:20221001T000000Z\r\n" +
	"DTSTART:20221003T110000Z\r\n" +
	"DTEND:20221003T130000Z\r\n" +
	"SUMMARY:104.265 VO Algebra\r\n" +
	"DESCRIPTION:orig description\r\n" +
	"LOCATION:EI 7 Hörsaal\r\n" +
	"CATEGORIES:COURSE\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

type testAPI struct {
	ts      *httptest.Server
	client  *http.Client
	feedURL string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	dir, err := rooms.LoadReader(strings.NewReader(
		"EI 7 Hörsaal;;;;;;Gußhausstraße 25-29, Stiege 1;gusshaus;https://tiss.tuwien.ac.at/x\n"))
	require.NoError(t, err)

	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleICS))
	}))
	t.Cleanup(remote.Close)

	users := service.NewUserService(store, 0)
	calendars := service.NewCalendarService(store, feed.NewFetcher(0), dir, "https://tiss.tuwien.ac.at", nil)

	srv := New("", users, calendars)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar := newCookieJar(t)
	return &testAPI{
		ts:      ts,
		client:  &http.Client{Jar: jar},
		feedURL: remote.URL,
	}
}

func newCookieJar(t *testing.T) http.CookieJar {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return jar
}

func (a *testAPI) postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := a.client.Post(a.ts.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func (a *testAPI) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := a.client.Get(a.ts.URL + path)
	require.NoError(t, err)
	return resp
}

func (a *testAPI) registerAndLogin(t *testing.T) {
	t.Helper()
	resp := a.postJSON(t, "/tisscal/api/register", map[string]string{"username": "alice", "password": "password1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = a.postJSON(t, "/tisscal/api/login", map[string]string{"username": "alice", "password": "password1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)

	// Unauthenticated requests are rejected.
	resp := api.get(t, "/tisscal/api/me")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	api.registerAndLogin(t)

	resp = api.get(t, "/tisscal/api/me")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "alice", me["username"])

	resp = api.get(t, "/tisscal/api/logout")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = api.get(t, "/tisscal/api/me")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestLogin_WrongPassword(t *testing.T) {
	api := newTestAPI(t)
	api.registerAndLogin(t)

	resp := api.postJSON(t, "/tisscal/api/login", map[string]string{"username": "alice", "password": "wrongwrong"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestCalendarLifecycle(t *testing.T) {
	api := newTestAPI(t)
	api.registerAndLogin(t)

	resp := api.postJSON(t, "/tisscal/api/cal/create", map[string]string{"url": api.feedURL, "name": "uni"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	created := decodeBody[calendarResponse](t, resp)
	assert.Len(t, created.Token, 30)
	require.Len(t, created.AllEvents, 1)
	assert.True(t, created.AllEvents[0].IsLva)

	// The feed endpoint requires no session, only the token.
	feedResp, err := http.Get(api.ts.URL + "/tisscal/" + created.Token)
	require.NoError(t, err)
	defer feedResp.Body.Close()
	require.Equal(t, http.StatusOK, feedResp.StatusCode)
	assert.Contains(t, feedResp.Header.Get("Content-Type"), "text/calendar")
	body, err := io.ReadAll(feedResp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "SUMMARY:VO Algebra")

	resp = api.get(t, "/tisscal/api/cal/data/"+created.Token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodDelete, api.ts.URL+"/tisscal/api/cal/"+created.Token, nil)
	require.NoError(t, err)
	resp, err = api.client.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = api.get(t, "/tisscal/api/cal/data/" + created.Token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestServeCalendar_UnknownToken(t *testing.T) {
	api := newTestAPI(t)

	resp, err := http.Get(api.ts.URL + "/tisscal/doesnotexist")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
