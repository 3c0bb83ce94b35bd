// Package mocks provides gomock implementations of the core repository and adapter ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	repo := mocks.NewMockIssueRepository(ctrl)
//	repo.EXPECT().GetByIDTx(gomock.Any(), gomock.Any(), issueID).Return(issue, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=idempotency_repository_mock.go github.com/target/newsletter-api/internal/core IdempotencyRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=issue_repository_mock.go github.com/target/newsletter-api/internal/core IssueRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=delivery_queue_repository_mock.go github.com/target/newsletter-api/internal/core DeliveryQueueRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=subscription_repository_mock.go github.com/target/newsletter-api/internal/core SubscriptionRepository

// Adapter ports.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=email_sender_mock.go github.com/target/newsletter-api/internal/core EmailSender
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=event_publisher_mock.go github.com/target/newsletter-api/internal/core EventPublisher
