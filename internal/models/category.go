package models

import "strings"

// ResolveServiceCategory maps a raw service-type string from the order system
// to the closed category set. Matching is substring-based because upstream
// sends display labels ("Premium Laundry Bundle", "Exterior Car Wash").
// Resolution happens once at ingestion; downstream code never re-parses.
func ResolveServiceCategory(serviceType string) ServiceCategory {
	v := strings.ToLower(strings.TrimSpace(serviceType))
	if v == "" {
		return ServiceUnknown
	}
	switch {
	case strings.Contains(v, "laundry"), strings.Contains(v, "wash & fold"):
		return ServiceLaundry
	case strings.Contains(v, "car wash"), strings.Contains(v, "car_wash"), strings.Contains(v, "detail"):
		return ServiceCarWash
	case strings.Contains(v, "clean"):
		return ServiceCleaning
	default:
		return ServiceUnknown
	}
}
