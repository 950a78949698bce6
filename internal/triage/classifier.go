// Package triage assigns a priority and category to incoming maintenance
// requests. Classification is a deterministic keyword scan so intake keeps
// working with zero latency and no network dependency; an optional remote
// AI classifier can sit in front of it (see Service).
package triage

import (
	"strings"

	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/domain"
)

// Result is a triage outcome. Classify is total: there is always a result.
type Result struct {
	Priority domain.Priority `json:"priority"`
	Category domain.Category `json:"category"`
}

// Keyword lists are ordered and order is load-bearing: the first match wins.
// High-priority keywords are checked before low-priority ones, and category
// groups are tested top to bottom, so "water heater sparking" lands in
// Plumbing, not Electrical. Tests pin this precedence; do not reorder.
var highPriorityKeywords = []string{
	"emergency",
	"flooding",
	"flood",
	"burst pipe",
	"gas",
	"fire",
	"smoke",
	"no heat",
	"no power",
	"electrical",
	"sparking",
	"security",
	"broken lock",
	"break-in",
	"sewage",
	"carbon monoxide",
}

var lowPriorityKeywords = []string{
	"cosmetic",
	"minor",
	"squeaky",
	"squeak",
	"loose",
	"slow",
	"sticky",
	"scuff",
	"touch up",
	"touch-up",
	"whenever",
	"maintenance",
}

type categoryGroup struct {
	category domain.Category
	keywords []string
}

var categoryGroups = []categoryGroup{
	{domain.CategoryPlumbing, []string{"water", "plumb", "drain", "toilet", "sink", "pipe", "faucet", "shower", "leak", "sewage"}},
	{domain.CategoryElectrical, []string{"electric", "outlet", "light", "power", "breaker", "wiring", "sparking", "switch"}},
	{domain.CategoryHVAC, []string{"heat", "cooling", "air condition", "ac ", "hvac", "furnace", "thermostat", "ventilation", "radiator"}},
	{domain.CategoryAppliance, []string{"appliance", "fridge", "refrigerator", "oven", "stove", "dishwasher", "washer", "dryer", "microwave"}},
	{domain.CategoryStructural, []string{"wall", "ceiling", "floor", "roof", "window", "door", "crack", "foundation", "stairs"}},
	{domain.CategoryPestControl, []string{"pest", "mice", "mouse", "rat", "roach", "cockroach", "ant", "bed bug", "bedbug", "termite", "wasp"}},
}

// Classify derives priority and category from free-form issue text.
// Pure and total: identical input yields identical output, the worst case
// is Medium/Other.
func Classify(title, details string) Result {
	combined := strings.ToLower(title + " " + details)

	return Result{
		Priority: classifyPriority(combined),
		Category: classifyCategory(combined),
	}
}

func classifyPriority(combined string) domain.Priority {
	// High beats low regardless of position in the text.
	for _, kw := range highPriorityKeywords {
		if strings.Contains(combined, kw) {
			return domain.PriorityHigh
		}
	}
	for _, kw := range lowPriorityKeywords {
		if strings.Contains(combined, kw) {
			return domain.PriorityLow
		}
	}
	return domain.PriorityMedium
}

func classifyCategory(combined string) domain.Category {
	for _, group := range categoryGroups {
		for _, kw := range group.keywords {
			if strings.Contains(combined, kw) {
				return group.category
			}
		}
	}
	return domain.CategoryOther
}
