// Signpost - Job Posting Redirect and Dispatch Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signpost

package manipulate

import "strings"

// queryPair is one parsed query segment. Segments without "=" are kept
// raw and copied through unmodified instead of being dropped.
type queryPair struct {
	key   string
	value string
	raw   string // set for segments that had no "=" separator
}

// MergeQuery splices query into url. When query leads with "?" or "&"
// it is treated as one or more key/value pairs: keys already present in
// url are replaced in place at their original position, new keys are
// appended, and keys listed in exclusions are never copied. Otherwise
// query is appended to url as a raw string (before any fragment).
//
// Values are decoded once on read and re-escaped once on write, so
// already-percent-encoded input survives a round trip without double
// encoding. Merging the same query twice is equivalent to merging once.
func MergeQuery(url, query string, exclusions []string) string {
	if len(query) > 1 && (query[0] == '?' || query[0] == '&') {
		return mergePairs(url, query[1:], exclusions)
	}

	// Raw append, preserving any fragment position.
	parts := strings.SplitN(url, "#", 2)
	parts[0] += query
	return strings.Join(parts, "#")
}

func mergePairs(url, query string, exclusions []string) string {
	base, oldQuery, fragment := splitURL(url)

	pairs := parsePairs(oldQuery, true)
	incoming := parsePairs(query, false)

	for _, in := range incoming {
		if in.raw != "" {
			// Opaque segment: carry it over verbatim, once.
			if !containsRaw(pairs, in.raw) {
				pairs = append(pairs, in)
			}
			continue
		}
		if excluded(in.key, exclusions) {
			continue
		}
		replaced := false
		for i := range pairs {
			if pairs[i].raw == "" && pairs[i].key == in.key {
				pairs[i].value = in.value
				replaced = true
				break
			}
		}
		if !replaced {
			pairs = append(pairs, in)
		}
	}

	segments := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.raw != "" {
			segments = append(segments, p.raw)
			continue
		}
		segments = append(segments, quotePath(p.key)+"="+quotePath(p.value))
	}

	out := base
	if len(segments) > 0 {
		out += "?" + strings.Join(segments, "&")
	}
	if fragment != "" {
		out += "#" + fragment
	}
	return out
}

// splitURL separates url into the part before the query, the query
// itself, and the fragment. The fragment boundary is located first so a
// "?" inside a fragment is not mistaken for a query.
func splitURL(url string) (base, query, fragment string) {
	base = url
	if idx := strings.Index(base, "#"); idx >= 0 {
		fragment = base[idx+1:]
		base = base[:idx]
	}
	if idx := strings.Index(base, "?"); idx >= 0 {
		query = base[idx+1:]
		base = base[:idx]
	}
	return base, query, fragment
}

// parsePairs decodes a query string into ordered pairs. Segments with
// no "=" are carried raw. Blank values are kept only when keepBlank is
// set, mirroring how the existing url side is parsed permissively while
// incoming additions are not.
func parsePairs(query string, keepBlank bool) []queryPair {
	if query == "" {
		return nil
	}
	var pairs []queryPair
	for _, segment := range strings.Split(query, "&") {
		if segment == "" {
			continue
		}
		key, value, found := strings.Cut(segment, "=")
		if !found {
			pairs = append(pairs, queryPair{raw: segment})
			continue
		}
		if value == "" && !keepBlank {
			continue
		}
		pairs = append(pairs, queryPair{
			key:   unquotePlus(key),
			value: unquotePlus(value),
		})
	}
	return pairs
}

func containsRaw(pairs []queryPair, raw string) bool {
	for _, p := range pairs {
		if p.raw == raw {
			return true
		}
	}
	return false
}

func excluded(key string, exclusions []string) bool {
	for _, e := range exclusions {
		if key == e {
			return true
		}
	}
	return false
}
