package model

import "strings"

// Resource names one independently concurrency-bounded search target.
type Resource string

const (
	ResourceDigikala Resource = "digikala"
	ResourceEbay     Resource = "ebay"
	ResourceGlobal   Resource = "global"
)

// Resources is the display order used by keyboards and listings.
var Resources = []Resource{ResourceDigikala, ResourceEbay, ResourceGlobal}

// ParseResource maps a config key or command argument onto a known resource.
func ParseResource(s string) (Resource, bool) {
	switch Resource(strings.ToLower(strings.TrimSpace(s))) {
	case ResourceDigikala:
		return ResourceDigikala, true
	case ResourceEbay:
		return ResourceEbay, true
	case ResourceGlobal:
		return ResourceGlobal, true
	}
	return "", false
}

// NeedsLink reports whether the resource uses the two-step link + query flow.
func (r Resource) NeedsLink() bool { return r == ResourceGlobal }

// Title is the user facing name of the resource.
func (r Resource) Title() string {
	switch r {
	case ResourceDigikala:
		return "Digikala"
	case ResourceEbay:
		return "eBay"
	case ResourceGlobal:
		return "Global"
	}
	return string(r)
}
