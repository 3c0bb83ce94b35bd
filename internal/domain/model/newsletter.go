package model

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrIssueContentRequired is returned when an issue has no title or no body.
	ErrIssueContentRequired = errors.New("newsletter issue requires a title and content")
	// ErrIssueNotFound is returned when a newsletter issue does not exist.
	ErrIssueNotFound = errors.New("newsletter issue not found")
)

// NewsletterIssue is an immutable published issue.
type NewsletterIssue struct {
	ID          string    `json:"newsletter_issue_id" db:"newsletter_issue_id"`
	Title       string    `json:"title"               db:"title"`
	TextContent string    `json:"text_content"        db:"text_content"`
	HTMLContent string    `json:"html_content"        db:"html_content"`
	PublishedAt time.Time `json:"published_at"        db:"published_at"`
}

// PublishIssueRequest carries the content of an issue to publish.
type PublishIssueRequest struct {
	Title       string `json:"title"`
	TextContent string `json:"text_content"`
	HTMLContent string `json:"html_content"`
}

// Validate ensures the request has a title and at least one body.
func (r PublishIssueRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrIssueContentRequired
	}
	if strings.TrimSpace(r.TextContent) == "" && strings.TrimSpace(r.HTMLContent) == "" {
		return ErrIssueContentRequired
	}
	return nil
}

// DeliveryTask is one pending (issue, recipient) pair in issue_delivery_queue.
type DeliveryTask struct {
	IssueID         string `json:"newsletter_issue_id" db:"newsletter_issue_id"`
	SubscriberEmail string `json:"subscriber_email"    db:"subscriber_email"`
}

// DeliveryOutcome is the result of a single delivery attempt.
type DeliveryOutcome string

const (
	// DeliveryOutcomeEmptyQueue means no unlocked task was available.
	DeliveryOutcomeEmptyQueue DeliveryOutcome = "empty_queue"
	// DeliveryOutcomeTaskCompleted means a task was taken and removed from the queue.
	DeliveryOutcomeTaskCompleted DeliveryOutcome = "task_completed"
)

// QueueStats summarizes the pending delivery queue per issue.
type QueueStats struct {
	IssueID string `json:"newsletter_issue_id"`
	Title   string `json:"title"`
	Pending int64  `json:"pending"`
}

// IssueListOptions controls paging for listing issues.
type IssueListOptions struct {
	Limit  int
	Offset int
}
