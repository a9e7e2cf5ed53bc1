package model

import "strings"

// Region identifies the Frontegg deployment hosting the vendor account
type Region string

const (
	// RegionEU is the European deployment, the default
	RegionEU Region = "EU"
	// RegionUS is the United States deployment
	RegionUS Region = "US"
	// RegionAP is the Asia-Pacific deployment
	RegionAP Region = "AP"
)

// gatewayURLs maps each region to its public API gateway base URL
var gatewayURLs = map[Region]string{
	RegionEU: "https://api.frontegg.com",
	RegionUS: "https://api.us.frontegg.com",
	RegionAP: "https://api.ap.frontegg.com",
}

// ParseRegion normalizes a region name, accepting any casing.
// The second return is false for unknown regions.
func ParseRegion(s string) (Region, bool) {
	r := Region(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", false
	}
	return r, true
}

// Valid reports whether the region is a known deployment
func (r Region) Valid() bool {
	_, ok := gatewayURLs[r]
	return ok
}

// GatewayURL returns the base URL for vendor-level endpoints such as authentication
func (r Region) GatewayURL() string {
	return gatewayURLs[r]
}

// IdentityBaseURL returns the base URL of the identity service for user resources
func (r Region) IdentityBaseURL() string {
	return gatewayURLs[r] + "/identity"
}
