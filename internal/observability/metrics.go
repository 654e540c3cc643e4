// Package observability provides metrics and tracing helpers.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values for LoginsTotal.
const (
	LoginSucceeded = "success"
	LoginRejected  = "invalid_credentials"
	LoginFailed    = "error"
)

// Label values for ImagesUploadedTotal.
const (
	ImageKindAvatar = "avatar"
	ImageKindPost   = "post"
)

var (
	// LoginsTotal counts login attempts by outcome.
	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_logins_total",
		Help: "Total number of login attempts by outcome",
	}, []string{"outcome"})

	// ImagesUploadedTotal counts stored uploads by kind.
	ImagesUploadedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_images_uploaded_total",
		Help: "Total number of uploaded images by kind",
	}, []string{"kind"})

	// PostsPublishedTotal counts draft to published transitions.
	PostsPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blog_posts_published_total",
		Help: "Total number of posts moved to the published state",
	})

	// CommentsCreatedTotal counts new comments by moderation state.
	CommentsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_comments_created_total",
		Help: "Total number of created comments",
	}, []string{"state"})

	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})
)

// RecordLogin increments the login counter for an outcome.
func RecordLogin(outcome string) {
	LoginsTotal.WithLabelValues(outcome).Inc()
}

// RecordImageUpload increments the upload counter for a kind.
func RecordImageUpload(kind string) {
	ImagesUploadedTotal.WithLabelValues(kind).Inc()
}

// RecordComment increments the comment counter.
func RecordComment(published bool) {
	state := "pending"
	if published {
		state = "published"
	}
	CommentsCreatedTotal.WithLabelValues(state).Inc()
}

// RecordRedisError increments the Redis error counter for an operation.
func RecordRedisError(operation string) {
	RedisErrors.WithLabelValues(operation).Inc()
}
