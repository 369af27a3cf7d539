package utils

import "strings"

func Dedupe(s []string) []string {
	if len(s) <= 1 {
		return s
	}
	keys := make(map[string]struct{}, len(s))
	ret := make([]string, 0, len(s))
	for _, elem := range s {
		if _, ok := keys[elem]; !ok {
			keys[elem] = struct{}{}
			ret = append(ret, elem)
		}
	}
	return ret
}

// TrimAll trims whitespace from every element and drops the empty ones.
func TrimAll(s []string) []string {
	ret := make([]string, 0, len(s))
	for _, elem := range s {
		trimmed := strings.TrimSpace(elem)
		if len(trimmed) == 0 {
			continue
		}
		ret = append(ret, trimmed)
	}
	return ret
}
