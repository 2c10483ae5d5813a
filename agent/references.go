package agent

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var citationRef = regexp.MustCompile(`\[(\d+)\]`)

// appendReferences scans the answer for bracket citations like [2] and
// appends a References section listing each cited link exactly once, in
// ascending citation order. Citations pointing past the evidence list are
// ignored. An answer without citations is returned unchanged.
func appendReferences(answer string, citationLinks []string) string {
	matches := citationRef.FindAllStringSubmatch(answer, -1)
	if len(matches) == 0 {
		return answer
	}

	used := make(map[int]bool)
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		used[n-1] = true
	}

	indices := make([]int, 0, len(used))
	for idx := range used {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	seen := make(map[string]bool)
	var links []string
	for _, idx := range indices {
		if idx < 0 || idx >= len(citationLinks) {
			continue
		}
		link := citationLinks[idx]
		if link == "" || seen[link] {
			continue
		}
		seen[link] = true
		links = append(links, link)
	}
	if len(links) == 0 {
		return answer
	}

	var b strings.Builder
	b.WriteString(answer)
	b.WriteString("\n\n**References**\n")
	for i, link := range links {
		fmt.Fprintf(&b, "%d. %s", i+1, link)
		if i < len(links)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
