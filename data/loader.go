// Package data loads the scenario files that drive the table-based parts of the widget suites.
// The files are embedded in the binary, so the harness has no runtime dependency on this directory.
package data

import (
	"embed"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/require"

	"github.com/widgetharness/widget-test-harness/framework/ctest"
)

//go:embed data-files
var dataFilesRoot embed.FS

const dataBasePath = "data-files"

// SourceInfo is JSON or YAML data read from a file, after constants and parameters have been
// expanded. A parameterized file yields one SourceInfo per parameter set. See data-files/README.md.
type SourceInfo struct {
	FilePath string
	BaseName string
	Params   map[string]ldvalue.Value
	Data     []byte
}

func (s SourceInfo) ParseInto(target interface{}) error {
	if err := ParseJSONOrYAML(s.Data, target); err != nil {
		return fmt.Errorf("error parsing %q %s: %w", s.BaseName, s.ParamsString(), err)
	}
	return nil
}

// ParamsString renders the parameter set in a stable order, e.g. "(CONTROL=reset,PRESSES=2)".
func (s SourceInfo) ParamsString() string {
	if len(s.Params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(s.Params))
	for k := range s.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ps := ""
	for _, k := range keys {
		if ps != "" {
			ps += ","
		}
		v := s.Params[k]
		if v.Type() == ldvalue.StringType {
			ps += k + "=" + v.StringValue()
		} else {
			ps += k + "=" + v.String()
		}
	}
	return "(" + ps + ")"
}

// LoadDataFile reads one file, relative to data/data-files, and expands its substitutions.
func LoadDataFile(path string) ([]SourceInfo, error) {
	data, err := dataFilesRoot.ReadFile(dataBasePath + "/" + path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	sources, err := expandSubstitutions(data)
	if err != nil {
		return nil, fmt.Errorf("error reading %q: %w", path, err)
	}
	baseName := filepath.Base(path)
	ret := make([]SourceInfo, 0, len(sources))
	for _, source := range sources {
		source.FilePath = path
		source.BaseName = baseName
		ret = append(ret, source)
	}
	return ret, nil
}

// LoadAllDataFiles calls LoadDataFile for every YAML or JSON file in a directory, in name order.
func LoadAllDataFiles(path string) ([]SourceInfo, error) {
	files, err := dataFilesRoot.ReadDir(dataBasePath + "/" + path)
	if err != nil {
		return nil, err
	}
	var ret []SourceInfo
	for _, file := range files {
		switch filepath.Ext(file.Name()) {
		case ".yaml", ".yml", ".json":
		default:
			continue
		}
		sources, err := LoadDataFile(path + "/" + file.Name())
		if err != nil {
			return nil, err
		}
		ret = append(ret, sources...)
	}
	return ret, nil
}

// ParseAll parses every SourceInfo into a V.
func ParseAll[V any](sources []SourceInfo) ([]V, error) {
	ret := make([]V, 0, len(sources))
	for _, source := range sources {
		var item V
		if err := source.ParseInto(&item); err != nil {
			return nil, err
		}
		ret = append(ret, item)
	}
	return ret, nil
}

// LoadAndParseAll loads a directory with LoadAllDataFiles and parses the results, failing the test
// if anything is malformed.
func LoadAndParseAll[V any](t *ctest.T, dirName string) []V {
	sources, err := LoadAllDataFiles(dirName)
	require.NoError(t, err)
	ret, err := ParseAll[V](sources)
	require.NoError(t, err)
	return ret
}
