package services

import (
	"regexp"
	"slices"
	"strings"
)

var tenantNameRegex = regexp.MustCompile(`^\w+$`)

// reservedHandles are first path segments served by the app itself. A tenant
// with one of these names would be shadowed by the fixed route.
var reservedHandles = []string{"sites", "livez", "metrics"}

// ValidHandle reports whether h is usable as a tenant name: word characters
// only, no spaces or punctuation.
func ValidHandle(h string) bool {
	return tenantNameRegex.MatchString(h)
}

// ReservedHandle reports whether h collides with an application route.
func ReservedHandle(h string) bool {
	return slices.Contains(reservedHandles, strings.ToLower(h))
}
