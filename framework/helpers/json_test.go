package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsJSON(t *testing.T) {
	value := map[string]interface{}{"seq": 2, "values": map[string]string{"display": "5"}}
	assert.Equal(t, `{"seq":2,"values":{"display":"5"}}`, string(AsJSON(value)))
	assert.Equal(t, "null", string(AsJSON(nil)))
}
