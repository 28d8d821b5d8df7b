// Package entity holds the domain types of the homework status bot:
// homework records, the validated poll response, the verdict catalog and
// the closed set of error kinds used across the application.
package entity

// HomeworkRecord is a single homework entry from a poll response.
// Fields other than homework_name and status are ignored.
type HomeworkRecord struct {
	Name   string
	Status string
}

// PollResponse is a validated poll payload.
// Homeworks keep the order the API returned them in.
type PollResponse struct {
	Homeworks   []HomeworkRecord
	CurrentDate int64
}
