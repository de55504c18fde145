package migration

import (
	"strconv"
	"strings"
)

// InitialVersion is the schema version of a fresh install.
const InitialVersion = "0.0.0"

// CompareVersions orders two dotted version strings. Components are compared
// pairwise: when both sides of a pair parse as integers they compare
// numerically, otherwise that pair compares lexically. A missing component
// counts as "0".
//
// The lexical fallback means pre-release suffixes do not order the way
// strict semver would ("1.0.0-beta" sorts after "1.0.0"). This is a known
// limitation kept deliberately; compare_test.go pins it.
func CompareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")

	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}

	for i := 0; i < n; i++ {
		ap := component(as, i)
		bp := component(bs, i)

		ai, aerr := strconv.Atoi(ap)
		bi, berr := strconv.Atoi(bp)
		if aerr == nil && berr == nil {
			if ai != bi {
				if ai < bi {
					return -1
				}
				return 1
			}
			continue
		}

		if ap != bp {
			if ap < bp {
				return -1
			}
			return 1
		}
	}
	return 0
}

func component(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return "0"
}
