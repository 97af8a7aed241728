package watchdog

import "strings"

// SignalType labels why a headline matters.
type SignalType string

const (
	// SignalDistress marks turnaround targets: leadership exits, deficits,
	// restructuring.
	SignalDistress SignalType = "DISTRESS"

	// SignalForecast marks early business-development signals: approved
	// plans, task forces, searches.
	SignalForecast SignalType = "FORECAST"
)

// Priorities assigned to created tasks per signal type.
const (
	distressPriority = 1
	forecastPriority = 3
)

var distressKeywords = []string{
	"resigns", "stepping down", "deficit", "budget cuts", "layoffs",
	"restructuring", "closure", "merger", "vote of no confidence",
	"financial exigency", "probation",
}

var opportunityKeywords = []string{
	"request for proposal", "rfp", "request for qualifications", "rfq",
	"feasibility study",
	"strategic plan approved", "master plan approved", "capital campaign launch",
	"enrollment task force", "presidential search committee",
	"board of trustees meeting", "budget presentation", "strategic initiative",
	"consultant search", "audit findings",
}

// Signal is one classified headline.
type Signal struct {
	Type     SignalType
	Title    string
	Link     string
	Keyword  string
	Priority int
}

// classify matches a headline against the keyword lists. Distress is
// checked first; the first keyword hit wins.
func classify(title, link string) (Signal, bool) {
	lower := strings.ToLower(title)
	for _, keyword := range distressKeywords {
		if strings.Contains(lower, keyword) {
			return Signal{
				Type:     SignalDistress,
				Title:    title,
				Link:     link,
				Keyword:  keyword,
				Priority: distressPriority,
			}, true
		}
	}
	for _, keyword := range opportunityKeywords {
		if strings.Contains(lower, keyword) {
			return Signal{
				Type:     SignalForecast,
				Title:    title,
				Link:     link,
				Keyword:  keyword,
				Priority: forecastPriority,
			}, true
		}
	}
	return Signal{}, false
}
