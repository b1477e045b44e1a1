// Signpost - Job Posting Redirect and Dispatch Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signpost

package manipulate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	a, err := ParseAction("sourcecodetag")
	require.NoError(t, err)
	assert.Equal(t, ActionSourceCodeTag, a)

	a, err = ParseAction("fixurl")
	require.NoError(t, err)
	assert.Equal(t, ActionFixURL, a)

	_, err = ParseAction("frobnicate")
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestKnown(t *testing.T) {
	assert.True(t, Known("cframe"))
	assert.True(t, Known("micrositetag"))
	assert.False(t, Known(""))
	assert.False(t, Known("SourceCodeTag")) // names are case sensitive
}

func TestMicrositeFamily(t *testing.T) {
	assert.True(t, ActionMicrosite.MicrositeFamily())
	assert.True(t, ActionMicrositeTag.MicrositeFamily())
	assert.False(t, ActionSourceCodeTag.MicrositeFamily())
	assert.False(t, ActionCFrame.MicrositeFamily())
}

func TestPrependsJobURL(t *testing.T) {
	prepending := []Action{
		ActionDoubleClickWrap,
		ActionReplaceThenAddPre,
		ActionSourceURLWrap,
		ActionSourceURLWrapAppend,
		ActionSourceURLWrapUnencoded,
		ActionSourceURLWrapUnencodedAppend,
	}
	for _, a := range prepending {
		assert.True(t, a.PrependsJobURL(), string(a))
	}
	assert.False(t, ActionSourceCodeTag.PrependsJobURL())
	assert.False(t, ActionMicrosite.PrependsJobURL())
	assert.False(t, ActionReplaceThenAdd.PrependsJobURL())
}
