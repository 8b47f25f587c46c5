package serviceinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	data := []byte(`{"name":"go-widgets","capabilities":["timer","calculator"],"serviceVersion":"1.0.0"}`)
	info, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "go-widgets", info.Name)
	assert.True(t, info.Capabilities.Has("timer"))
	assert.Equal(t, data, info.FullData)
	assert.Equal(t, "go-widgets (timer, calculator)", info.Describe())
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte(`not json`))
	assert.Error(t, err)

	_, err = Parse([]byte(`{"capabilities":[]}`))
	assert.Error(t, err)
}

func TestDescribeWithoutCapabilities(t *testing.T) {
	info := TestServiceInfo{TestServiceInfoBase: TestServiceInfoBase{Name: "x"}}
	assert.Equal(t, "x", info.Describe())
}
