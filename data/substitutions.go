package data

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// substitutionSet maps a placeholder name to its value. In file text, "<NAME>" in quotes is
// replaced by the value's JSON, and a bare <NAME> inside a longer string by its plain text.
type substitutionSet map[string]ldvalue.Value

type substitutionHeader struct {
	Constants  substitutionSet   `json:"constants"`
	Parameters []json.RawMessage `json:"parameters"`
}

// expandSubstitutions applies a file's constants, and produces one copy of the file per parameter
// set. Constants are applied again after parameters so that a parameter value can name a constant.
func expandSubstitutions(original []byte) ([]SourceInfo, error) {
	var header substitutionHeader
	if err := ParseJSONOrYAML(original, &header); err != nil {
		return nil, err
	}
	paramSets, err := parameterSets(header.Parameters)
	if err != nil {
		return nil, err
	}
	if len(paramSets) == 0 {
		return []SourceInfo{{Data: replaceVariables(original, header.Constants)}}, nil
	}
	ret := make([]SourceInfo, 0, len(paramSets))
	for _, params := range paramSets {
		expanded := replaceVariables(original, header.Constants)
		expanded = replaceVariables(expanded, params)
		expanded = replaceVariables(expanded, header.Constants)
		ret = append(ret, SourceInfo{Data: expanded, Params: params})
	}
	return ret, nil
}

// parameterSets accepts either a list of objects, each one a parameter set, or a list of lists of
// objects, in which case the result is every combination taking one object from each list.
func parameterSets(raw []json.RawMessage) ([]substitutionSet, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	allData, _ := json.Marshal(raw)
	switch ldvalue.Parse(raw[0]).Type() {
	case ldvalue.ObjectType:
		var list []substitutionSet
		if err := json.Unmarshal(allData, &list); err != nil {
			return nil, err
		}
		return list, nil
	case ldvalue.ArrayType:
		var lists [][]substitutionSet
		if err := json.Unmarshal(allData, &lists); err != nil {
			return nil, err
		}
		return permutations(lists), nil
	default:
		return nil, errors.New("parameters must be an array of objects or an array of arrays")
	}
}

func permutations(lists [][]substitutionSet) []substitutionSet {
	for _, list := range lists {
		if len(list) == 0 {
			return nil
		}
	}
	indices := make([]int, len(lists))
	var result []substitutionSet
	for {
		merged := make(substitutionSet)
		for i, list := range lists {
			for k, v := range list[indices[i]] {
				merged[k] = v
			}
		}
		result = append(result, merged)

		pos := 0
		for ; pos < len(lists); pos++ {
			indices[pos]++
			if indices[pos] < len(lists[pos]) {
				break
			}
			indices[pos] = 0
		}
		if pos == len(lists) {
			return result
		}
	}
}

func replaceVariables(original []byte, substs substitutionSet) []byte {
	// JSON data files may have their angle brackets escaped.
	str := strings.NewReplacer(`\u003c`, "<", `\u003e`, ">").Replace(string(original))
	for name, value := range substs {
		typed := value.JSONString()
		plain := typed
		if value.IsString() {
			plain = value.StringValue()
		}
		str = strings.ReplaceAll(str, `"<`+name+`>"`, typed)
		str = strings.ReplaceAll(str, "<"+name+">", plain)
	}
	return []byte(str)
}
