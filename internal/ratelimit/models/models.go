package models

import (
	"fmt"
	"strings"
	"time"
)

// Class separates read traffic from mutations so a client polling balances
// does not exhaust its budget for submitting operations.
type Class string

const (
	ClassRead  Class = "read"
	ClassWrite Class = "write"
)

// ClassFor maps an HTTP method to its class.
func ClassFor(method string) Class {
	switch method {
	case "GET", "HEAD", "OPTIONS":
		return ClassRead
	}
	return ClassWrite
}

// Limit is the number of requests admitted per sliding window.
type Limit struct {
	Requests int
	Window   time.Duration
}

func (l Limit) IsZero() bool {
	return l.Requests <= 0 || l.Window <= 0
}

// Result represents the outcome of a rate limit check.
type Result struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// ExceededResponse is the body written with a 429.
type ExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

// sanitizeKeySegment escapes the key delimiter so an identifier cannot
// address a neighbouring bucket.
func sanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// SenderKey buckets authenticated requests by acting address.
func SenderKey(sender string, class Class) string {
	return fmt.Sprintf("ratelimit:sender:%s:%s", sanitizeKeySegment(sender), class)
}

// IPKey buckets requests that carry no sender.
func IPKey(ip string, class Class) string {
	return fmt.Sprintf("ratelimit:ip:%s:%s", sanitizeKeySegment(ip), class)
}
