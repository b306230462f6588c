// Package version parses the date-stamped protocol version tags used in host
// service names (e.g. "2014_02", "2019_05") and orders them.
package version

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	masterminds "github.com/Masterminds/semver/v3"
)

const logPrefix = "version:version"

// Known protocol versions of the host interop services.
const (
	V2014_02 = "2014_02"
	V2014_07 = "2014_07"
	V2014_10 = "2014_10"
	V2019_05 = "2019_05"
)

var tagRegex = regexp.MustCompile(`^(\d{4})_(\d{2})$`)

// Tag is a parsed protocol version tag.
type Tag struct {
	// Raw is the normalized tag string (e.g. "2014_10").
	Raw string
	sem *masterminds.Version
}

// Parse parses a version tag. Hosts sometimes send a trailing "|" separator
// after the tag; it is ignored.
func Parse(raw string) (*Tag, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "|")
	m := tagRegex.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("%s - invalid version tag: %q", logPrefix, raw)
	}
	year, _ := strconv.ParseUint(m[1], 10, 64)
	month, _ := strconv.ParseUint(m[2], 10, 64)
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%s - invalid month in version tag: %q", logPrefix, raw)
	}
	return &Tag{Raw: s, sem: masterminds.New(year, month, 0, "", "")}, nil
}

// MustParse is like Parse but panics on invalid input. Intended for constants.
func MustParse(raw string) *Tag {
	t, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// Compare returns -1, 0 or 1 if t is older, equal or newer than o.
func (t *Tag) Compare(o *Tag) int {
	return t.sem.Compare(o.sem)
}

// String returns the normalized tag.
func (t *Tag) String() string {
	return t.Raw
}

// Compare compares two raw tags. Unparseable tags sort before any valid tag.
func Compare(a, b string) int {
	ta, errA := Parse(a)
	tb, errB := Parse(b)
	switch {
	case errA != nil && errB != nil:
		return strings.Compare(a, b)
	case errA != nil:
		return -1
	case errB != nil:
		return 1
	}
	return ta.Compare(tb)
}

// SortDescending sorts tags newest first, in place.
func SortDescending(tags []string) {
	sort.SliceStable(tags, func(i, j int) bool {
		return Compare(tags[i], tags[j]) > 0
	})
}

// Highest returns the newest tag among the candidates for which available
// returns true. The second result is false when none is available.
func Highest(candidates []string, available func(string) bool) (string, bool) {
	sorted := make([]string, len(candidates))
	copy(sorted, candidates)
	SortDescending(sorted)
	for _, tag := range sorted {
		if available(tag) {
			return tag, true
		}
	}
	return "", false
}
