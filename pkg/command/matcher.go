package command

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrEmptyTable   = errors.New("command: route table is empty")
	ErrInvalidRoute = errors.New("command: invalid route")
)

type Matcher struct {
	routes []Route
	// keywords[i] holds the normalised keywords of routes[i]
	keywords [][]string
}

// NewMatcher validates the table and orders it by ascending priority. Routes
// sharing a priority keep their table order.
func NewMatcher(routes []Route) (*Matcher, error) {
	if len(routes) == 0 {
		return nil, ErrEmptyTable
	}

	ordered := make([]Route, len(routes))
	copy(ordered, routes)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	seen := make(map[string]bool, len(ordered))
	keywords := make([][]string, len(ordered))
	for i, route := range ordered {
		if err := validateRoute(route); err != nil {
			return nil, err
		}
		if seen[route.PageID] {
			return nil, fmt.Errorf("%w: duplicate page_id %q", ErrInvalidRoute, route.PageID)
		}
		seen[route.PageID] = true

		for _, keyword := range route.Keywords {
			if k := Normalize(keyword); k != "" {
				keywords[i] = append(keywords[i], k)
			}
		}
	}

	return &Matcher{
		routes:   ordered,
		keywords: keywords,
	}, nil
}

func validateRoute(route Route) error {
	if strings.TrimSpace(route.PageID) == "" {
		return fmt.Errorf("%w: page_id is required", ErrInvalidRoute)
	}
	if !strings.HasPrefix(route.Path, "/") {
		return fmt.Errorf("%w: path of %q must start with /", ErrInvalidRoute, route.PageID)
	}

	for _, keyword := range route.Keywords {
		if Normalize(keyword) != "" {
			return nil
		}
	}
	return fmt.Errorf("%w: %q has no keywords", ErrInvalidRoute, route.PageID)
}

// Match returns the first route, in priority order, that has a keyword
// contained in the transcript. ok is false when nothing matched.
func (m *Matcher) Match(transcript string) (Match, bool) {
	text := Normalize(transcript)
	if text == "" {
		return Match{}, false
	}

	for i, route := range m.routes {
		for _, keyword := range m.keywords[i] {
			if strings.Contains(text, keyword) {
				return Match{Route: route, Keyword: keyword}, true
			}
		}
	}

	return Match{}, false
}

func (m *Matcher) Routes() []Route {
	routes := make([]Route, len(m.routes))
	copy(routes, m.routes)
	return routes
}

var lower = cases.Lower(language.Und)

// Normalize lower-cases the text, folds it to NFKC and collapses runs of
// whitespace into a single space.
func Normalize(text string) string {
	text = norm.NFKC.String(text)
	text = lower.String(text)
	return strings.Join(strings.Fields(text), " ")
}
