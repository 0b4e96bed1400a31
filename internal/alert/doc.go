// Package alert delivers one-way operator notifications (subject + body).
// Delivery is fire-and-forget; the core never blocks on or retries an alert.
package alert
