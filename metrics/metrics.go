package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PostsScraped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_posts_total",
			Help: "Total number of posts whose comments were collected.",
		})
	PostsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_posts_skipped_total",
			Help: "Total number of posts skipped because their comments could not be fetched.",
		})
	CommentsKept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_comments_kept_total",
			Help: "Total number of comments above the upvote threshold.",
		})
	CommentsFiltered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_comments_filtered_total",
			Help: "Total number of comments at or below the upvote threshold.",
		})
	PlaceholdersExpanded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_placeholders_expanded_total",
			Help: "Total number of \"more comments\" placeholders resolved.",
		})
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_api_requests_total",
			Help: "Requests made to the Reddit API by endpoint and status code.",
		}, []string{"endpoint", "status"})
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scraper_run_duration_seconds",
			Help:    "Duration of complete scrape runs.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"mode"})
)
