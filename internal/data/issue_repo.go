package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/target/newsletter-api/internal/data/database"
	"github.com/target/newsletter-api/internal/domain/model"
)

// IssueRepo stores newsletter issues.
type IssueRepo struct {
	DB           *sql.DB
	logger       *slog.Logger
	timeProvider TimeProvider
}

// NewIssueRepo creates a new IssueRepo.
func NewIssueRepo(db *sql.DB, cfg RepoConfig) *IssueRepo {
	return &IssueRepo{
		DB:           db,
		logger:       cfg.logger().With("component", "issue_repo"),
		timeProvider: cfg.timeProvider(),
	}
}

const issueColumns = `newsletter_issue_id, title, text_content, html_content, published_at`

// InsertTx creates an issue with a fresh id, published now.
func (r *IssueRepo) InsertTx(
	ctx context.Context,
	tx *sql.Tx,
	req model.PublishIssueRequest,
) (*model.NewsletterIssue, error) {
	issue := &model.NewsletterIssue{
		ID:          uuid.NewString(),
		Title:       req.Title,
		TextContent: req.TextContent,
		HTMLContent: req.HTMLContent,
		PublishedAt: r.timeProvider.Now().UTC(),
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO newsletter_issues (`+issueColumns+`)
		VALUES ($1, $2, $3, $4, $5)
	`, issue.ID, issue.Title, issue.TextContent, issue.HTMLContent, issue.PublishedAt); err != nil {
		return nil, fmt.Errorf("insert newsletter issue: %w", err)
	}
	return issue, nil
}

// GetByIDTx loads an issue inside tx.
func (r *IssueRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*model.NewsletterIssue, error) {
	var issue model.NewsletterIssue
	err := tx.QueryRowContext(ctx, `
		SELECT `+issueColumns+`
		FROM newsletter_issues
		WHERE newsletter_issue_id = $1
	`, id).Scan(&issue.ID, &issue.Title, &issue.TextContent, &issue.HTMLContent, &issue.PublishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrIssueNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("select newsletter issue: %w", err)
	}
	return &issue, nil
}

// List returns issues newest first.
func (r *IssueRepo) List(ctx context.Context, opts model.IssueListOptions) ([]*model.NewsletterIssue, error) {
	limit := opts.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	query, args := database.BuildListQuery(database.NewListQueryOptions("newsletter_issues",
		database.WithColumns("newsletter_issue_id", "title", "text_content", "html_content", "published_at"),
		database.WithOrderBy("published_at", "DESC"),
		database.WithOrderBy("newsletter_issue_id", "ASC"),
		database.WithLimit(limit),
		database.WithOffset(max(opts.Offset, 0)),
	))
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list newsletter issues: %w", err)
	}
	defer rows.Close()

	var issues []*model.NewsletterIssue
	for rows.Next() {
		var issue model.NewsletterIssue
		if err := rows.Scan(&issue.ID, &issue.Title, &issue.TextContent, &issue.HTMLContent, &issue.PublishedAt); err != nil {
			return nil, fmt.Errorf("scan newsletter issue: %w", err)
		}
		issues = append(issues, &issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate newsletter issues: %w", err)
	}
	return issues, nil
}
