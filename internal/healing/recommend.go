package healing

import "odyssey/internal/classify"

// recommendations keys a human-readable next step by failure category,
// shown when a loop exhausts its attempts or refuses to start.
var recommendations = map[classify.Category]string{
	classify.CategorySelector:   "add a stable data-testid to the target element and re-run compilation",
	classify.CategoryTiming:     "check for slow backend responses; if the flow is legitimately slow, raise the journey's timeout explicitly",
	classify.CategoryNavigation: "confirm the destination URL in the journey text matches the application's routing",
	classify.CategoryAssertion:  "the application behavior may have changed; review the journey's expected values",
	classify.CategoryNetwork:    "the backend or a third-party dependency is failing; fix the environment before re-running",
	classify.CategoryData:       "seed data collides across runs; give the journey per-run test data",
	classify.CategoryAuth:       "credentials or session setup are broken; healing never bypasses auth",
	classify.CategoryEnv:        "the browser or runner environment is unhealthy; reinstall or restart it",
	classify.CategoryUnknown:    "unrecognized failure; inspect the raw runner output manually",
}

// Recommend returns the exhaustion recommendation for a category.
func Recommend(c classify.Category) string {
	if r, ok := recommendations[c]; ok {
		return r
	}
	return recommendations[classify.CategoryUnknown]
}
