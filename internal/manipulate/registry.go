// Signpost - Job Posting Redirect and Dispatch Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signpost

// Package manipulate implements the catalog of named URL-rewrite
// strategies applied to job destination urls, plus the string/encoding
// contracts they share: the legacy two-pass percent encoding and the
// query-string merger.
//
// Every strategy is a pure function of (job, rule) -> url. Strategies
// never touch the store and never fail a request: a rule that cannot be
// applied reports an error and the caller falls back to the untouched
// job url.
package manipulate

import (
	"strconv"
	"strings"

	"github.com/tomtom215/signpost/internal/models"
)

// CompanyFrameBase is the fixed company-frame host that cframe results
// are served under.
const CompanyFrameBase = "http://directemployers.us.jobs/companyframe/"

// transform rewrites a job's destination url according to one rule.
type transform func(job *models.Redirect, rule models.DestinationManipulation) (string, error)

var catalog = map[Action]transform{
	ActionSourceCodeTag:                sourceCodeTag,
	ActionMicrosite:                    microsite,
	ActionMicrositeTag:                 micrositeTag,
	ActionDoubleClickWrap:              doubleClickWrap,
	ActionDoubleClickUnwind:            doubleClickUnwind,
	ActionAnchorRedirectIssue:          anchorRedirectIssue,
	ActionSourceCodeSwitch:             sourceCodeSwitch,
	ActionFixURL:                       sourceCodeSwitch, // historic alias
	ActionSourceCodeInsertion:          sourceCodeInsertion,
	ActionSourceURLWrap:                sourceURLWrap,
	ActionSourceURLWrapAppend:          sourceURLWrapAppend,
	ActionSourceURLWrapUnencoded:       sourceURLWrapUnencoded,
	ActionSourceURLWrapUnencodedAppend: sourceURLWrapUnencodedAppend,
	ActionURLSwap:                      urlSwap,
	ActionAmpToAmp:                     ampToAmp,
	ActionSwitchLastInstance:           switchLastInstance,
	ActionSwitchLastThenAdd:            switchLastThenAdd,
	ActionReplace:                      replaceAll,
	ActionReplaceThenAdd:               replaceThenAdd,
	ActionReplaceThenAddPre:            replaceThenAddPre,
	ActionCFrame:                       cFrame,
}

// Apply runs the strategy named by rule.Action against the job's
// current url. Unknown actions and malformed rule values return an
// error wrapping ErrUnknownAction / ErrMalformedRule together with the
// untouched url, so callers can fall back and keep redirecting.
func Apply(job *models.Redirect, rule models.DestinationManipulation) (string, error) {
	fn, ok := catalog[Action(rule.Action)]
	if !ok {
		return job.URL, ErrUnknownAction
	}
	url, err := fn(job, rule)
	if err != nil {
		return job.URL, err
	}
	return url, nil
}

// sourceCodeTag merges the rule's source code into the url. Values
// leading with "?" or "&" go through the query merger; anything else is
// a raw string append.
func sourceCodeTag(job *models.Redirect, rule models.DestinationManipulation) (string, error) {
	return MergeQuery(job.URL, rule.Value1, nil), nil
}

// microsite swaps the job into the rule's microsite template and tags
// the referring view source on.
func microsite(job *models.Redirect, rule models.DestinationManipulation) (string, error) {
	url := strings.ReplaceAll(rule.Value1, models.UniqueIDToken, strconv.FormatInt(job.UID, 10))
	return MergeQuery(url, "&vs="+strconv.Itoa(rule.ViewSource), nil), nil
}

// micrositeTag substitutes the unique-id token inside the job's own
// url. The historical implementation also resolved a chained secondary
// rule in here; that lookup now lives in the resolver as an explicit
// second stage, keeping this transform pure.
func micrositeTag(job *models.Redirect, rule models.DestinationManipulation) (string, error) {
	return strings.ReplaceAll(job.URL, models.UniqueIDToken, strconv.FormatInt(job.UID, 10)), nil
}

func doubleClickWrap(job *models.Redirect, rule models.DestinationManipulation) (string, error) {
	return rule.Value1 + job.URL, nil
}

// doubleClickUnwind strips everything through the last "?", recovering
// the destination a doubleclick wrapper carries as its final query.
func doubleClickUnwind(job *models.Redirect, rule models.DestinationManipulation) (string, error) {
	idx := strings.LastIndex(job.URL, "?")
	if idx < 0 {
		return job.URL, nil
	}
	return job.URL[idx+1:], nil
}

// anchorRedirectIssue drops the fragment, which some ATS backends
// mishandle, and appends the rule's replacement parameter.
func anchorRedirectIssue(job *models.Redirect, rule models.DestinationManipulation) (string, error) {
	head, _, _ := strings.Cut(job.URL, "#")
	return head + rule.Value1, nil
}

func sourceCodeSwitch(job *models.Redirect, rule models.DestinationManipulation) (string, error) {
	return strings.ReplaceAll(job.URL, rule.Value1, rule.Value2), nil
}

// sourceCodeInsertion inserts the rule value immediately before each
// "#" in the url.
func sourceCodeInsertion(job *models.Redirect, rule models.DestinationManipulation) (string, error) {
	parts := strings.Split(job.URL, "#")
	return strings.Join(parts, rule.Value1+"#"), nil
}

func sourceURLWrap(job *models.Redirect, rule models.DestinationManipulation) (string, error) {
	return rule.Value1 + QuoteString(job.URL), nil
}

func sourceURLWrapAppend(job *models.Redirect, rule models.DestinationManipulation) (string, error) {
	return rule.Value1 + QuoteString(job.URL) + rule.Value2, nil
}

func sourceURLWrapUnencoded(job *models.Redirect, rule models.DestinationManipulation) (string, error) {
	return rule.Value1 + job.URL, nil
}

func sourceURLWrapUnencodedAppend(job *models.Redirect, rule models.DestinationManipulation) (string, error) {
	return rule.Value1 + job.URL + rule.Value2, nil
}

func urlSwap(job *models.Redirect, rule models.DestinationManipulation) (string, error) {
	return rule.Value1, nil
}

// ampToAmp rebuilds an ampersand-delimited url as value_1 + the second
// segment + value_2.
func ampToAmp(job *models.Redirect, rule models.DestinationManipulation) (string, error) {
	parts := strings.Split(job.URL, "&")
	if len(parts) < 2 {
		return job.URL, ErrMalformedRule
	}
	return rule.Value1 + parts[1] + rule.Value2, nil
}

func switchLastInstance(job *models.Redirect, rule models.DestinationManipulation) (string, error) {
	if rule.Value1 == "" {
		return job.URL, ErrMalformedRule
	}
	return replaceLast(job.URL, rule.Value1, rule.Value2), nil
}

func switchLastThenAdd(job *models.Redirect, rule models.DestinationManipulation) (string, error) {
	old, new_, found := strings.Cut(rule.Value1, RuleDelimiter)
	if !found || old == "" {
		return job.URL, ErrMalformedRule
	}
	return MergeQuery(replaceLast(job.URL, old, new_), rule.Value2, nil), nil
}

func replaceAll(job *models.Redirect, rule models.DestinationManipulation) (string, error) {
	old, new_, found := strings.Cut(rule.Value1, RuleDelimiter)
	if !found {
		return job.URL, ErrMalformedRule
	}
	return strings.ReplaceAll(job.URL, old, new_), nil
}

func replaceThenAdd(job *models.Redirect, rule models.DestinationManipulation) (string, error) {
	url, err := replaceAll(job, rule)
	if err != nil {
		return job.URL, err
	}
	return MergeQuery(url, rule.Value2, nil), nil
}

func replaceThenAddPre(job *models.Redirect, rule models.DestinationManipulation) (string, error) {
	url, err := replaceAll(job, rule)
	if err != nil {
		return job.URL, err
	}
	return rule.Value2 + url, nil
}

// cFrame embeds the custom-encoded job url as the url= parameter of a
// company frame page named by the rule.
func cFrame(job *models.Redirect, rule models.DestinationManipulation) (string, error) {
	return CompanyFrameBase + rule.Value1 + "?url=" + QuoteString(job.URL), nil
}

// replaceLast substitutes only the final occurrence of old in s.
func replaceLast(s, old, new_ string) string {
	idx := strings.LastIndex(s, old)
	if idx < 0 {
		return s
	}
	return s[:idx] + new_ + s[idx+len(old):]
}
