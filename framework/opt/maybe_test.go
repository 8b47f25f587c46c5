package opt

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clockParams struct {
	Mode       string     `json:"mode"`
	IntervalMS Maybe[int] `json:"intervalMs,omitempty"`
}

func TestNone(t *testing.T) {
	assert.False(t, None[string]().IsDefined())
	assert.Equal(t, 0, None[int]().Value())
	assert.Nil(t, None[*string]().Value())
	assert.Equal(t, clockParams{}, None[clockParams]().Value())
	assert.Equal(t, "[none]", None[int]().String())
}

func TestSome(t *testing.T) {
	assert.True(t, Some("").IsDefined())
	assert.Equal(t, "x", Some("x").Value())
	assert.Equal(t, "3", Some(3).String())
	assert.Equal(t, "1s", Some(time.Second).String())
}

func TestGetAndOrElse(t *testing.T) {
	v, ok := Some(4).Get()
	assert.Equal(t, 4, v)
	assert.True(t, ok)
	_, ok = None[int]().Get()
	assert.False(t, ok)

	assert.Equal(t, 3, None[int]().OrElse(3))
	assert.Equal(t, 4, Some(4).OrElse(3))
}

func TestJSON(t *testing.T) {
	var params clockParams
	require.NoError(t, json.Unmarshal([]byte(`{"mode":"accelerated","intervalMs":5}`), &params))
	assert.Equal(t, Some(5), params.IntervalMS)

	params = clockParams{}
	require.NoError(t, json.Unmarshal([]byte(`{"mode":"real","intervalMs":null}`), &params))
	assert.False(t, params.IntervalMS.IsDefined())

	params = clockParams{}
	require.NoError(t, json.Unmarshal([]byte(`{"mode":"real"}`), &params))
	assert.False(t, params.IntervalMS.IsDefined())

	data, err := json.Marshal(clockParams{Mode: "real"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"mode":"real","intervalMs":null}`, string(data))

	var m Maybe[clockParams]
	assert.Error(t, m.UnmarshalJSON([]byte(`malformed`)))
	assert.Error(t, m.UnmarshalJSON([]byte(`{"mode":true}`)))
}
