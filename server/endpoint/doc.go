// Package endpoint holds the status server's Gin handlers.
package endpoint
