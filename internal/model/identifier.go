package model

import "regexp"

// UUIDv4Pattern matches canonical UUIDv4 strings with the RFC 4122 variant.
// Identifiers that do not match are treated as email addresses and resolved
// through the identity API; no email syntax check is applied, the lookup
// simply fails for nonsense input.
var UUIDv4Pattern = regexp.MustCompile(
	`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[1-5][0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}$`,
)

// IsUUID reports whether the identifier is already a user ID
func IsUUID(identifier string) bool {
	return UUIDv4Pattern.MatchString(identifier)
}

// Credentials carries the vendor API credentials for one Frontegg account
type Credentials struct {
	ClientID string
	Secret   string
	// TenantID scopes delete calls to a single tenant when set
	TenantID string
}
