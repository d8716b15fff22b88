package search

import (
	"fmt"
	"strings"
)

// BuildQuery composes the boolean query for the given ATS domains, role
// phrases and location terms:
//
//	(site:a OR site:b) ("role one" OR "role two") (India OR "New Delhi")
//
// Roles are always quoted; locations only when they contain whitespace.
func BuildQuery(sites, roles, locations []string) string {
	var groups []string

	if len(sites) > 0 {
		terms := make([]string, 0, len(sites))
		for _, s := range sites {
			terms = append(terms, "site:"+strings.TrimSpace(s))
		}
		groups = append(groups, group(terms))
	}

	if len(roles) > 0 {
		terms := make([]string, 0, len(roles))
		for _, r := range roles {
			terms = append(terms, fmt.Sprintf("%q", strings.TrimSpace(r)))
		}
		groups = append(groups, group(terms))
	}

	if len(locations) > 0 {
		terms := make([]string, 0, len(locations))
		for _, l := range locations {
			l = strings.TrimSpace(l)
			if strings.ContainsAny(l, " \t") {
				l = fmt.Sprintf("%q", l)
			}
			terms = append(terms, l)
		}
		groups = append(groups, group(terms))
	}

	return strings.Join(groups, " ")
}

func group(terms []string) string {
	return "(" + strings.Join(terms, " OR ") + ")"
}
