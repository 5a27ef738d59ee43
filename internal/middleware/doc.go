// Package middleware provides HTTP middleware for the signage server.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics with bounded label cardinality
//   - Admin token authentication (plain or bcrypt-hashed)
//   - Response compression (gzip) for manifests and JSON
package middleware
