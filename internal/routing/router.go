// Package routing maps an obligation category to the organizational unit and
// recipients responsible for acting on it. Both the UI split and reminder
// dispatch consult this one mapping so the two can never drift apart.
package routing

import (
	"errors"
	"sort"

	"fleetworks/internal/category"
	platformstrings "fleetworks/pkg/platform/strings"
)

// Route is the answer for one category: who owns it and who gets told.
type Route struct {
	Responsibility category.Responsibility `json:"responsibility"`
	Recipients     []string                `json:"recipients"`
}

// Router resolves categories to routes from configured recipient lists. Pure
// lookup over configuration; no I/O.
type Router struct {
	recipients map[category.Responsibility][]string
}

// New builds a router from per-responsibility recipient lists. Lists are
// deduplicated, trimmed and sorted so resolved routes are deterministic no
// matter how sloppily the environment was configured.
func New(office, workshop []string) (*Router, error) {
	office = cleanList(office)
	workshop = cleanList(workshop)
	if len(office) == 0 && len(workshop) == 0 {
		return nil, errors.New("at least one recipient list is required")
	}
	return &Router{recipients: map[category.Responsibility][]string{
		category.ResponsibilityOffice:   office,
		category.ResponsibilityWorkshop: workshop,
	}}, nil
}

// Resolve returns the route for a category.
func (r *Router) Resolve(cat *category.Category) Route {
	return Route{
		Responsibility: cat.Responsibility,
		Recipients:     r.recipients[cat.Responsibility],
	}
}

func cleanList(in []string) []string {
	out := platformstrings.DedupeAndTrimLower(in)
	sort.Strings(out)
	return out
}
