// Signpost - Job Posting Redirect and Dispatch Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signpost

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/signpost/internal/config"
	"github.com/tomtom215/signpost/internal/database"
	"github.com/tomtom215/signpost/internal/exclusions"
	"github.com/tomtom215/signpost/internal/models"
	"github.com/tomtom215/signpost/internal/resolver"
)

const testGUID = "1234567890abcdef1234567890abcdef"

func newTestServer(t *testing.T) (*database.MemoryStore, http.Handler) {
	t.Helper()
	store := database.NewMemoryStore()
	cfg := config.Default()

	res := resolver.New(store, exclusions.New(store), cfg.Redirect.CanonicalSite, cfg.Redirect.NewJobWindow)
	handler := NewHandler(res, store, cfg)
	return store, NewRouter(handler, &cfg.Server).Setup()
}

func seedJob(store *database.MemoryStore, mutate ...func(*models.Redirect)) {
	job := models.Redirect{
		GUID:        testGUID,
		BUID:        1,
		UID:         1234,
		URL:         "http://www.example.com/",
		NewDate:     time.Now().Add(-2 * time.Hour),
		JobTitle:    "Retail Associate",
		CompanyName: "Acme Corp",
	}
	for _, m := range mutate {
		m(&job)
	}
	store.AddRedirect(job)
}

func get(t *testing.T, h http.Handler, target string, decorate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Host = "jcnlx.com"
	for _, d := range decorate {
		d(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestClickRedirects(t *testing.T) {
	store, h := newTestServer(t)
	seedJob(store)

	rec := get(t, h, "/"+testGUID)

	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "http://www.example.com/", rec.Header().Get("Location"))
	assert.Contains(t, rec.Header().Get("X-REDIRECT"), "jcnlx.ref=")
	assert.Contains(t, rec.Header().Get("X-REDIRECT"), "&jcnlx.buid=1")

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "aguid", cookies[0].Name)
	// The leading dot is stripped when the Set-Cookie header is
	// serialized, per RFC 6265.
	assert.Equal(t, "jcnlx.com", cookies[0].Domain)
	assert.Len(t, cookies[0].Value, 32)
}

func TestClickWithViewSourceRunsManipulation(t *testing.T) {
	store, h := newTestServer(t)
	seedJob(store)
	store.AddManipulation(models.DestinationManipulation{
		BUID: 1, ViewSource: 10, ActionType: 1,
		Action: "sourcecodetag", Value1: "&src=DE-mail",
	})

	rec := get(t, h, "/"+testGUID+"10")

	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "http://www.example.com/?src=DE-mail", rec.Header().Get("Location"))
	assert.Contains(t, rec.Header().Get("X-REDIRECT"), "&jcnlx.vsid=10")
}

func TestClickUnknownGUID(t *testing.T) {
	_, h := newTestServer(t)

	rec := get(t, h, "/"+testGUID)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "could not be found")
	assert.Empty(t, rec.Header().Get("X-REDIRECT"))
}

func TestClickMalformedTokenBouncesToCanonicalSite(t *testing.T) {
	_, h := newTestServer(t)

	for _, path := range []string{"/", "/favicon.ico", "/" + testGUID[:31], "/not-a-guid"} {
		rec := get(t, h, path)
		assert.Equal(t, http.StatusMovedPermanently, rec.Code, "path %q", path)
		assert.Equal(t, "http://www.my.jobs", rec.Header().Get("Location"), "path %q", path)
	}
}

func TestClickExpiredJob(t *testing.T) {
	store, h := newTestServer(t)
	expired := time.Now().Add(-48 * time.Hour)
	seedJob(store, func(j *models.Redirect) {
		j.ExpiredDate = &expired
	})

	rec := get(t, h, "/"+testGUID)

	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Contains(t, rec.Body.String(), "This job has expired.")
	assert.Contains(t, rec.Body.String(), "http://www.my.jobs/acme-corp/careers/")
	assert.Contains(t, rec.Header().Get("X-REDIRECT"), "&jcnlx.err=XIN")
}

func TestClickSocialCrawlerGetsPreview(t *testing.T) {
	store, h := newTestServer(t)
	seedJob(store)

	rec := get(t, h, "/"+testGUID, func(r *http.Request) {
		r.Header.Set("User-Agent", "facebookexternalhit/1.1")
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `og:title`)
	assert.Contains(t, rec.Body.String(), "Retail Associate")
	assert.Empty(t, rec.Result().Cookies(), "crawlers get no visitor cookie")
}

func TestClickDebugToken(t *testing.T) {
	store, h := newTestServer(t)
	seedJob(store)

	rec := get(t, h, "/"+testGUID+"+")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Redirect Debug")
	assert.Contains(t, rec.Body.String(), "GUID="+testGUID)
	// Inspecting a link is not a click: no analytics header, no cookie.
	assert.Empty(t, rec.Header().Get("X-REDIRECT"))
	assert.Empty(t, rec.Result().Cookies())
}

func TestClickKeepsExistingAGUID(t *testing.T) {
	store, h := newTestServer(t)
	seedJob(store)

	rec := get(t, h, "/"+testGUID, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "aguid", Value: "feedfacefeedfacefeedfacefeedface"})
	})

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "feedfacefeedfacefeedfacefeedface", cookies[0].Value)
	assert.Contains(t, rec.Header().Get("X-REDIRECT"), "&jcnlx.aguid=feedfacefeedfacefeedfacefeedface")
}

func TestHealthEndpoints(t *testing.T) {
	_, h := newTestServer(t)

	rec := get(t, h, "/health/live")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"alive"`)

	rec = get(t, h, "/health/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ready"`)
}

func TestMetricsEndpoint(t *testing.T) {
	_, h := newTestServer(t)

	rec := get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}
