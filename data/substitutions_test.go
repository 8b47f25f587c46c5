package data

import (
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	m "github.com/launchdarkly/go-test-helpers/v2/matchers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testExpandStruct struct {
	Values ldvalue.Value `json:"values"`
}

func expandValues(t *testing.T, input string) []ldvalue.Value {
	expanded, err := expandSubstitutions([]byte(input))
	require.NoError(t, err)
	var ret []ldvalue.Value
	for _, source := range expanded {
		var s testExpandStruct
		require.NoError(t, ParseJSONOrYAML(source.Data, &s))
		ret = append(ret, s.Values)
	}
	return ret
}

func TestExpandParameters(t *testing.T) {
	for _, params := range []struct {
		desc  string
		input string
	}{
		{"JSON", `{
  "parameters": [
    { "ID": "one", "PRESSES": 1 },
    { "ID": "two", "PRESSES": "many" }
  ],
  "values": { "<ID>": { "presses_of_<ID>": "<PRESSES>" } }
}`},
		{"YAML", `---
parameters:
  - ID: one
    PRESSES: 1
  - ID: two
    PRESSES: many
values:
  "<ID>":
    presses_of_<ID>: "<PRESSES>"
`},
	} {
		t.Run(params.desc, func(t *testing.T) {
			values := expandValues(t, params.input)
			m.In(t).Assert(ldvalue.ArrayOf(values...).JSONString(), m.JSONStrEqual(`[
  { "one": { "presses_of_one": 1 } },
  { "two": { "presses_of_two": "many" } }
]`))
		})
	}
}

func TestExpandPermutations(t *testing.T) {
	input := `---
parameters:
  -
    - A: 10
    - A: 11
  -
    - B: 20
    - B: 21
    - B: 22
values: ["<A>", "<B>"]
`
	values := expandValues(t, input)
	var pairs []string
	for _, v := range values {
		pairs = append(pairs, v.JSONString())
	}
	assert.Equal(t, []string{"[10,20]", "[11,20]", "[10,21]", "[11,21]", "[10,22]", "[11,22]"}, pairs)
}

func TestConstantsApplyInsideParameters(t *testing.T) {
	input := `---
constants:
  LIMIT: "60"
parameters:
  - EXPECT: "<LIMIT>"
    LABEL: above <LIMIT>
values:
  expect: "<EXPECT>"
  label: "cannot go <LABEL>"
`
	values := expandValues(t, input)
	require.Len(t, values, 1)
	m.In(t).Assert(values[0].JSONString(), m.JSONStrEqual(`{"expect":"60","label":"cannot go above 60"}`))
}

func TestConstantsWithoutParameters(t *testing.T) {
	input := `{"constants": {"N": 3}, "values": ["<N>", "n=<N>"]}`
	values := expandValues(t, input)
	require.Len(t, values, 1)
	assert.Equal(t, `[3,"n=3"]`, values[0].JSONString())
}

func TestInvalidParameters(t *testing.T) {
	_, err := expandSubstitutions([]byte(`{"parameters": [1, 2]}`))
	assert.Error(t, err)
}

func TestEmptyPermutationListIsNotParameterized(t *testing.T) {
	sources, err := expandSubstitutions([]byte(`{"parameters": [[{"A": 1}], []], "values": "<A>"}`))
	require.NoError(t, err)
	assert.Len(t, sources, 1)
}
