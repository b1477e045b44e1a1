// Signpost - Job Posting Redirect and Dispatch Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signpost

package resolver

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/tomtom215/signpost/internal/database"
	"github.com/tomtom215/signpost/internal/logging"
	"github.com/tomtom215/signpost/internal/manipulate"
	"github.com/tomtom215/signpost/internal/metrics"
	"github.com/tomtom215/signpost/internal/models"
)

// route picks between microsite routing and the manipulation chain and
// returns the destination url (may be "" when no strategy applies),
// the browse fallback for a later expired page, and the effective view
// source that tracking should report.
func (r *Resolver) route(ctx context.Context, job *models.Redirect, pathVSID string, req *Request, trace *traceLog) (string, string, string, error) {
	vsStr := pathVSID
	skipMicrosite := false

	// A numeric vs query parameter overrides the path view source and
	// forces the manipulation chain. Non-numeric values are noise from
	// upstream templating and are treated as absent.
	if override := req.Query.Get("vs"); override != "" {
		if _, err := strconv.Atoi(override); err == nil {
			vsStr = override
			skipMicrosite = true
		}
	}
	vs, err := strconv.Atoi(vsStr)
	if err != nil {
		vs = 0
		vsStr = "0"
	}

	newJob := r.now().Before(job.NewDate.Add(r.newJobWindow))

	microsite, err := r.store.GetMicrosite(ctx, job.BUID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		metrics.StoreErrors.WithLabelValues("get_microsite").Inc()
		return "", "", "", err
	}

	browseURL := ""
	if microsite != nil && job.Expired() {
		browseURL = microsite.CanonicalMicrositeURL
	}

	globalExcluded, err := r.exclusions.GlobalExcluded(ctx, vs)
	if err != nil {
		return "", "", "", err
	}
	customExcluded, err := r.exclusions.CustomExcluded(ctx, job.BUID, vs)
	if err != nil {
		return "", "", "", err
	}

	useManipulations := globalExcluded || customExcluded || microsite == nil || skipMicrosite || newJob
	if !useManipulations {
		dest := fmt.Sprintf("%s%d/job/?vs=%s", microsite.CanonicalMicrositeURL, job.UID, vsStr)
		if enableCustomQueries(req) {
			// Microsite destinations take the full query verbatim; the
			// site strips its own routing parameters.
			dest = manipulate.MergeQuery(dest, "&"+req.RawQuery, nil)
		}
		trace.addf("ManipulatedLink(Microsite)=%s VSID=%s", dest, vsStr)
		return dest, browseURL, vsStr, nil
	}

	rules, err := r.manipulationsFor(ctx, job.BUID, vs)
	if err != nil {
		return "", "", "", err
	}
	dest := r.applyChain(ctx, job, rules, req, trace)
	return dest, browseURL, vsStr, nil
}

// manipulationsFor loads the rule chain for (buid, vs), falling back
// to the tenant's catch-all chain at view source zero.
func (r *Resolver) manipulationsFor(ctx context.Context, buid, vs int) ([]models.DestinationManipulation, error) {
	rules, err := r.store.GetManipulations(ctx, buid, vs)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("get_manipulations").Inc()
		return nil, err
	}
	if len(rules) == 0 && vs != 0 {
		rules, err = r.store.GetManipulations(ctx, buid, 0)
		if err != nil {
			metrics.StoreErrors.WithLabelValues("get_manipulations").Inc()
			return nil, err
		}
	}
	return rules, nil
}

// applyChain runs the manipulation rules in order against the job url.
// Custom query passthrough merges into the raw job url before a
// prepending strategy runs, otherwise onto the output of the last rule.
// A microsite-family strategy terminates the chain.
func (r *Resolver) applyChain(ctx context.Context, job *models.Redirect, rules []models.DestinationManipulation, req *Request, trace *traceLog) string {
	if len(rules) == 0 {
		return ""
	}

	custom := enableCustomQueries(req)
	dest := ""
	for i, rule := range rules {
		action := manipulate.Action(rule.Action)
		if !manipulate.Known(rule.Action) {
			metrics.ConfigurationGaps.WithLabelValues(rule.Action).Inc()
			logging.Warn().
				Int("buid", rule.BUID).
				Int("view_source", rule.ViewSource).
				Str("action", rule.Action).
				Msg("Skipping manipulation with unknown action")
			continue
		}
		trace.addf("ActionTypeID=%d Action=%s", rule.ActionType, rule.Action)

		if custom && action.PrependsJobURL() {
			// The destination wraps the job url, so the extra
			// parameters have to land inside before encoding.
			job.URL = manipulate.MergeQuery(job.URL, "&"+req.RawQuery, passthroughExclusions)
		}

		out, err := manipulate.Apply(job, rule)
		if err != nil {
			metrics.ConfigurationGaps.WithLabelValues(rule.Action).Inc()
			logging.Warn().
				Err(err).
				Int("buid", rule.BUID).
				Int("view_source", rule.ViewSource).
				Str("action", rule.Action).
				Msg("Manipulation failed, passing url through unchanged")
			out = job.URL
		}

		if custom && !action.PrependsJobURL() && i == len(rules)-1 {
			out = manipulate.MergeQuery(out, "&"+req.RawQuery, passthroughExclusions)
		}

		trace.addf("ActionTypeID=%d ManipulatedLink=%s VSID=%d", rule.ActionType, out, rule.ViewSource)
		dest = out
		job.URL = out

		if action.MicrositeFamily() {
			if action == manipulate.ActionMicrositeTag {
				dest = r.applySecondary(ctx, job, rule, dest, trace)
				job.URL = dest
			}
			break
		}
	}
	return dest
}

// applySecondary chases the partner rule a micrositetag points at: the
// tenant's second-stage rule for the same view source, falling back to
// view source zero. The blank sentinel opts a tenant out explicitly.
func (r *Resolver) applySecondary(ctx context.Context, job *models.Redirect, primary models.DestinationManipulation, dest string, trace *traceLog) string {
	if primary.ActionType == 2 {
		return dest
	}
	sec, err := r.store.GetManipulation(ctx, job.BUID, primary.ViewSource, 2)
	if errors.Is(err, database.ErrNotFound) {
		sec, err = r.store.GetManipulation(ctx, job.BUID, 0, 2)
	}
	if errors.Is(err, database.ErrNotFound) {
		return dest
	}
	if err != nil {
		metrics.StoreErrors.WithLabelValues("get_manipulation").Inc()
		return dest
	}
	if sec.Value1 == models.BlankSentinel {
		return dest
	}

	out, err := manipulate.Apply(job, *sec)
	if err != nil {
		metrics.ConfigurationGaps.WithLabelValues(sec.Action).Inc()
		logging.Warn().
			Err(err).
			Int("buid", sec.BUID).
			Str("action", sec.Action).
			Msg("Secondary manipulation failed, keeping primary result")
		return dest
	}
	trace.addf("ActionTypeID=%d ManipulatedLink=%s VSID=%d", sec.ActionType, out, sec.ViewSource)
	return out
}
