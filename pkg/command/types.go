package command

// Route maps a set of spoken keywords to a client path and the phrase spoken
// back once the navigation happened.
type Route struct {
	PageID       string   `json:"page_id" yaml:"page_id"`
	Path         string   `json:"path" yaml:"path"`
	DisplayName  string   `json:"display_name" yaml:"display_name"`
	Keywords     []string `json:"keywords" yaml:"keywords"`
	Confirmation string   `json:"confirmation" yaml:"confirmation"`
	Priority     int      `json:"priority" yaml:"priority"`
}

// Match is the outcome of a successful lookup.
type Match struct {
	Route   Route  `json:"route"`
	Keyword string `json:"keyword"`
}

type IMatcher interface {
	Match(transcript string) (Match, bool)
	Routes() []Route
}

// DefaultRoutes returns the built-in table in priority order.
func DefaultRoutes() []Route {
	return []Route{
		{
			PageID:       "disease",
			Path:         "/disease",
			DisplayName:  "Crop Disease",
			Keywords:     []string{"open crop disease", "disease"},
			Confirmation: "Opened crop disease page",
			Priority:     1,
		},
		{
			PageID:       "recommendation",
			Path:         "/recommendation",
			DisplayName:  "Crop Recommendation",
			Keywords:     []string{"open crop recommendation", "recommendation"},
			Confirmation: "Opened crop recommendation page",
			Priority:     2,
		},
		{
			PageID:       "yield",
			Path:         "/yield",
			DisplayName:  "Crop Yield",
			Keywords:     []string{"open crop yield", "yield"},
			Confirmation: "Opened crop yield page",
			Priority:     3,
		},
		{
			PageID:       "dashboard",
			Path:         "/dashboard",
			DisplayName:  "Dashboard",
			Keywords:     []string{"open dashboard", "dashboard"},
			Confirmation: "Opened dashboard page",
			Priority:     4,
		},
		{
			PageID:       "home",
			Path:         "/home",
			DisplayName:  "Home",
			Keywords:     []string{"open home", "home"},
			Confirmation: "Opened home page",
			Priority:     5,
		},
	}
}
