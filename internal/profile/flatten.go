package profile

import (
	"sort"
	"strings"
)

// PathSeparator joins the keys of a nested path.
const PathSeparator = "->"

// SubSeries holds every value observed at one key path of a nested column.
type SubSeries struct {
	Path   []string
	Values []interface{}
}

// Key returns the joined key path.
func (s SubSeries) Key() string {
	return JoinPath(s.Path)
}

func JoinPath(path []string) string {
	return strings.Join(path, PathSeparator)
}

func SplitPath(key string) []string {
	return strings.Split(key, PathSeparator)
}

// Flatten walks every object and appends each leaf to the sub-series of its
// key path. Paths keep first-seen order; keys within one object are visited
// in sorted order. A missing key only shortens its path's series. Arrays and
// scalars are leaves.
func Flatten(objects []map[string]interface{}) []SubSeries {
	index := make(map[string]int)
	var series []SubSeries

	var walk func(prefix []string, obj map[string]interface{})
	walk = func(prefix []string, obj map[string]interface{}) {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			path := append(append([]string(nil), prefix...), k)
			if nested, ok := obj[k].(map[string]interface{}); ok && len(nested) > 0 {
				walk(path, nested)
				continue
			}
			key := JoinPath(path)
			i, ok := index[key]
			if !ok {
				i = len(series)
				index[key] = i
				series = append(series, SubSeries{Path: path})
			}
			series[i].Values = append(series[i].Values, obj[k])
		}
	}

	for _, obj := range objects {
		walk(nil, obj)
	}
	return series
}

// SetPath writes value into obj at path, creating intermediate objects.
func SetPath(obj map[string]interface{}, path []string, value interface{}) {
	cur := obj
	for _, k := range path[:len(path)-1] {
		next, ok := cur[k].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			cur[k] = next
		}
		cur = next
	}
	cur[path[len(path)-1]] = value
}
