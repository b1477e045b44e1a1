// Signpost - Job Posting Redirect and Dispatch Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signpost

package api

import (
	"html/template"
	"net/http"

	"github.com/tomtom215/signpost/internal/logging"
	"github.com/tomtom215/signpost/internal/resolver"
)

// The terminal pages are deliberately tiny static templates. They are
// shown to humans who followed a dead or malformed link and to social
// crawlers scraping preview metadata, nothing more.

var notFoundPage = template.Must(template.New("notfound").Parse(`<!DOCTYPE html>
<html>
<head><title>Job Not Found</title></head>
<body>
<h1>This job listing could not be found.</h1>
<p>The link you followed may be incomplete or out of date.</p>
</body>
</html>
`))

var expiredPage = template.Must(template.New("expired").Parse(`<!DOCTYPE html>
<html>
<head><title>Job Expired</title></head>
<body>
<h1>This job has expired.</h1>
<p>{{.JobTitle}}{{if .CompanyName}} at {{.CompanyName}}{{end}}{{if .JobLocation}} ({{.JobLocation}}){{end}} is no longer accepting applications.</p>
<p><a href="{{.BrowseURL}}">Browse current openings</a></p>
</body>
</html>
`))

var openGraphPage = template.Must(template.New("opengraph").Parse(`<!DOCTYPE html>
<html>
<head>
<meta property="og:title" content="{{.Title}}" />
<meta property="og:type" content="website" />
<meta property="og:description" content="{{.Title}}" />
<title>{{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
</body>
</html>
`))

var debugPage = template.Must(template.New("debug").Parse(`<!DOCTYPE html>
<html>
<head><title>Redirect Debug</title></head>
<body>
<h1>Redirect Debug</h1>
<ul>
{{range .Trace}}<li>{{.}}</li>
{{end}}</ul>
<p><a href="{{.Location}}">{{.Location}}</a></p>
</body>
</html>
`))

func renderNotFound(w http.ResponseWriter) {
	renderHTML(w, http.StatusNotFound, notFoundPage, nil)
}

func renderExpired(w http.ResponseWriter, data *resolver.ExpiredData) {
	renderHTML(w, http.StatusGone, expiredPage, data)
}

func renderOpenGraph(w http.ResponseWriter, data *resolver.OpenGraphData) {
	renderHTML(w, http.StatusOK, openGraphPage, data)
}

func renderDebug(w http.ResponseWriter, res *resolver.Result) {
	renderHTML(w, http.StatusOK, debugPage, res)
}

func renderServerError(w http.ResponseWriter) {
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func renderHTML(w http.ResponseWriter, status int, page *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := page.Execute(w, data); err != nil {
		logging.Error().Err(err).Str("page", page.Name()).Msg("Failed to render page")
	}
}
