package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntry_JSON(t *testing.T) {
	const raw = `{"entrytype":"text","id":"2880c78491b2f8ce","idParatextName":"ACRNT","languageCode":"acr","name":"Achi","revision":12,"rights":{"owned":true}}`

	var e Entry
	require.NoError(t, json.Unmarshal([]byte(raw), &e))
	assert.Equal(t, "2880c78491b2f8ce", e.ID)
	assert.Equal(t, "acr", e.LanguageCode)
	assert.Equal(t, "ACRNT", e.ParatextName)
	assert.Equal(t, EntryTypeText, e.EntryType)
	assert.Equal(t, "Achi", e.DisplayName, "name is used when nameCommon is absent")

	out, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Equal(t, raw, string(out), "remote records are written back unchanged")
}

func TestEntry_UnmarshalJSON_Invalid(t *testing.T) {
	var e Entry
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &e))
	assert.Error(t, json.Unmarshal([]byte(`null`), &e))
}

func TestEntry_MarshalJSON_Typed(t *testing.T) {
	e := Entry{ID: "e1", LanguageCode: "acr", EntryType: "text", DisplayName: "Achi"}
	out, err := json.Marshal(e)
	require.NoError(t, err)

	var back Entry
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, "e1", back.ID)
	assert.Equal(t, "Achi", back.DisplayName)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "cak-x-central_a4", Key("cak-x-central", "a4"))
	assert.Equal(t, "cak-x-central_a4.zip", ArchiveName("cak-x-central", "a4"))

	lang, id, ok := cutKey("cak-x-central_a4")
	assert.True(t, ok)
	assert.Equal(t, "cak-x-central", lang)
	assert.Equal(t, "a4", id)
}
