package reference

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sweetpotato0/citekit/retrieval"
)

var markerRegex = regexp.MustCompile(`\[(\d+)\]`)

// Renumber rewrites the draft's citation markers into first-appearance
// order and returns the matching map. The first marker a reader encounters
// is always [1], regardless of the reference's relevance rank: reader
// order is a UX contract distinct from the internal relevance order.
// Markers pointing outside the map are stripped.
func Renumber(draft string, refs *Map) (string, *Map) {
	if refs == nil || refs.Len() == 0 {
		return markerRegex.ReplaceAllString(draft, ""), fromOrdered(nil)
	}

	assigned := make(map[int]int) // original ID -> new ID
	var ordered []retrieval.Result

	rewritten := markerRegex.ReplaceAllStringFunc(draft, func(marker string) string {
		id, err := strconv.Atoi(strings.Trim(marker, "[]"))
		if err != nil {
			return marker
		}
		entry, ok := refs.Get(id)
		if !ok {
			return ""
		}
		newID, seen := assigned[id]
		if !seen {
			ordered = append(ordered, entry)
			newID = len(ordered)
			assigned[id] = newID
		}
		return "[" + strconv.Itoa(newID) + "]"
	})

	return rewritten, fromOrdered(ordered)
}

// Markers returns the citation IDs found in the text, left to right, with
// duplicates preserved.
func Markers(text string) []int {
	matches := markerRegex.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]int, 0, len(matches))
	for _, match := range matches {
		id, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out
}
