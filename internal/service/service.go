// Package service contains the business rules between the HTTP handlers and
// storage.
//
//	Handler (HTTP)  → parses requests, writes responses
//	Service         → validates, checks access, shapes results
//	Repository      → reads/writes the database
//
// Services depend on the interfaces in package repository, never on the
// sqlite package, so tests drive them with in-memory fakes.
//
// Conventions shared by every service:
//   - Absence is a nil result with a nil error. Handlers turn it into 404.
//   - Bad input is an apperror.ValidationFailed; missing or insufficient
//     identity is an apperror.Unauthorized.
//   - Storage failures are wrapped with the service name and logged by the
//     handler that maps them to 500.
package service

import "strings"

// cleanList trims each value and drops blanks and repeats, keeping order.
func cleanList(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
