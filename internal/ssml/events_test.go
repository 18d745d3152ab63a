package ssml_test

import (
	"encoding/json"
	"encoding/xml"
	"testing"

	"github.com/book-expert/ssml-service/internal/ssml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvents_Sequence(t *testing.T) {
	t.Parallel()

	var got []ssml.Event
	for event := range ssml.Events(`<?xml version="1.0" encoding="UTF-8"?><speak><!-- note --><break time="1s"/>hi</speak>`) {
		got = append(got, event)
	}

	want := []ssml.Event{
		{Kind: ssml.ElementStart, Name: "speak"},
		{Kind: ssml.ElementStart, Name: "break"},
		{Kind: ssml.ElementEnd, Name: "break"},
		{Kind: ssml.ElementEnd, Name: "speak"},
	}
	assert.Equal(t, want, got)
}

func TestEvents_FailureEndsSequence(t *testing.T) {
	t.Parallel()

	var got []ssml.Event
	for event := range ssml.Events("<speak><voice></speak>") {
		got = append(got, event)
	}

	require.Len(t, got, 3)
	assert.Equal(t, ssml.ElementStart, got[0].Kind)
	assert.Equal(t, ssml.ElementStart, got[1].Kind)
	assert.Equal(t, ssml.ParseFailure, got[2].Kind)

	var syntaxErr *xml.SyntaxError
	require.ErrorAs(t, got[2].Err, &syntaxErr)
}

func TestEvents_DuplicateAttribute(t *testing.T) {
	t.Parallel()

	var got []ssml.Event
	for event := range ssml.Events(`<speak version="1.0"><break time="1s" time="2s"/></speak>`) {
		got = append(got, event)
	}

	require.Len(t, got, 2)
	assert.Equal(t, ssml.ElementStart, got[0].Kind)
	assert.Equal(t, ssml.ParseFailure, got[1].Kind)

	var syntaxErr *xml.SyntaxError
	require.ErrorAs(t, got[1].Err, &syntaxErr)
	assert.Contains(t, syntaxErr.Msg, "duplicate attribute time on element <break>")

	_, err := ssml.CollectTags(ssml.Events(`<speak xml:lang="ja" lang="ja">x</speak>`))
	require.NoError(t, err, "attributes in different namespaces are distinct")
}

func TestEvents_StopEarly(t *testing.T) {
	t.Parallel()

	count := 0
	for range ssml.Events("<speak><break/><break/><break/></speak>") {
		count++

		if count == 2 {
			break
		}
	}

	assert.Equal(t, 2, count)
}

func TestCollectTags_DiscardsPartialTags(t *testing.T) {
	t.Parallel()

	found, err := ssml.CollectTags(ssml.Events("<speak><prosody><voice>unterminated"))
	require.Error(t, err)
	assert.Empty(t, found)

	found, err = ssml.CollectTags(ssml.Events("<speak><break/><break/><prosody/></speak>"))
	require.NoError(t, err)
	assert.Equal(t, ssml.NewTagSet("break", "prosody", "speak"), found)
}

func TestTagSet_Operations(t *testing.T) {
	t.Parallel()

	left := ssml.NewTagSet("speak", "voice", "break", "voice")
	right := ssml.NewTagSet("speak", "break", "prosody")

	assert.Equal(t, 3, left.Len())
	assert.Equal(t, ssml.NewTagSet("break", "speak"), left.Intersect(right))
	assert.Equal(t, ssml.NewTagSet("voice"), left.Difference(right))
	assert.Equal(t, 3, left.Len(), "operations must not modify the receiver")
	assert.Equal(t, []string{"break", "speak", "voice"}, left.Sorted())
	assert.Equal(t, "break, speak, voice", left.String())
	assert.Empty(t, ssml.TagSet(nil).Clone())
}

func TestTagSet_JSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(ssml.NewTagSet("voice", "break"))
	require.NoError(t, err)
	assert.JSONEq(t, `["break","voice"]`, string(data))

	data, err = json.Marshal(ssml.NewTagSet())
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))

	var decoded ssml.TagSet

	err = json.Unmarshal([]byte(`null`), &decoded)
	require.NoError(t, err)
	assert.NotNil(t, decoded)
	assert.Empty(t, decoded)
}
