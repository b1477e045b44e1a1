// Signpost - Job Posting Redirect and Dispatch Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signpost

package manipulate

import "fmt"

// Action identifies one named URL-rewrite strategy. Rule rows store the
// name as free text; ParseAction validates it against the catalog when
// configuration is read so unknown names surface as a configuration gap
// instead of a per-request surprise.
type Action string

const (
	ActionSourceCodeTag                Action = "sourcecodetag"
	ActionMicrosite                    Action = "microsite"
	ActionMicrositeTag                 Action = "micrositetag"
	ActionDoubleClickWrap              Action = "doubleclickwrap"
	ActionDoubleClickUnwind            Action = "doubleclickunwind"
	ActionAnchorRedirectIssue          Action = "anchorredirectissue"
	ActionSourceCodeSwitch             Action = "sourcecodeswitch"
	ActionFixURL                       Action = "fixurl"
	ActionSourceCodeInsertion          Action = "sourcecodeinsertion"
	ActionSourceURLWrap                Action = "sourceurlwrap"
	ActionSourceURLWrapAppend          Action = "sourceurlwrapappend"
	ActionSourceURLWrapUnencoded       Action = "sourceurlwrapunencoded"
	ActionSourceURLWrapUnencodedAppend Action = "sourceurlwrapunencodedappend"
	ActionURLSwap                      Action = "urlswap"
	ActionAmpToAmp                     Action = "amptoamp"
	ActionSwitchLastInstance           Action = "switchlastinstance"
	ActionSwitchLastThenAdd            Action = "switchlastthenadd"
	ActionReplace                      Action = "replace"
	ActionReplaceThenAdd               Action = "replacethenadd"
	ActionReplaceThenAddPre            Action = "replacethenaddpre"
	ActionCFrame                       Action = "cframe"
)

// RuleDelimiter splits an old/new substitution pair packed into a
// single rule value.
const RuleDelimiter = "!!!!"

// ErrUnknownAction marks a rule whose action name is not in the
// catalog. Resolution falls back to the untouched job url.
var ErrUnknownAction = fmt.Errorf("manipulate: unknown action")

// ErrMalformedRule marks a rule whose values cannot drive its strategy
// (missing delimiter, missing required segment). Treated like an
// unknown action: fall back, log, keep serving.
var ErrMalformedRule = fmt.Errorf("manipulate: malformed rule value")

// ParseAction validates a stored action name against the catalog.
func ParseAction(name string) (Action, error) {
	a := Action(name)
	if _, ok := catalog[a]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
	return a, nil
}

// Known reports whether name is a catalog action.
func Known(name string) bool {
	_, ok := catalog[Action(name)]
	return ok
}

// MicrositeFamily reports whether the action routes into a microsite
// template. The resolver stops its rule chain after one of these runs
// and resolves the optional secondary rule instead.
func (a Action) MicrositeFamily() bool {
	return a == ActionMicrosite || a == ActionMicrositeTag
}

// PrependsJobURL reports whether the strategy embeds the job url inside
// a wrapper determined by the rule. Custom query parameters must be
// spliced into the job url BEFORE one of these runs, since afterwards
// the url is no longer the tail of the result.
func (a Action) PrependsJobURL() bool {
	switch a {
	case ActionDoubleClickWrap, ActionReplaceThenAddPre,
		ActionSourceURLWrap, ActionSourceURLWrapAppend,
		ActionSourceURLWrapUnencoded, ActionSourceURLWrapUnencodedAppend:
		return true
	}
	return false
}
