package agent

import "regexp"

var testDefRe = regexp.MustCompile(`(?m)^[ \t]*(?:async[ \t]+)?def[ \t]+(test_\w*)[ \t]*\(`)

// TestNames extracts the pytest function names declared across tests, in order, without duplicates.
func TestNames(tests []string) []string {
	names := make([]string, 0, len(tests))
	for _, src := range tests {
		for _, m := range testDefRe.FindAllStringSubmatch(src, -1) {
			names = append(names, m[1])
		}
	}
	return unique(names)
}

// Unnamed returns the indexes of snippets that declare no test_ function at all.
func Unnamed(tests []string) []int {
	var idx []int
	for i, src := range tests {
		if !testDefRe.MatchString(src) {
			idx = append(idx, i)
		}
	}
	return idx
}

func unique(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
