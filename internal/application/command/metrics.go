package command

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EnrollmentResults counts enrollment attempts.
	// Labels: outcome (enrolled, already_enrolled, payment_required, error)
	EnrollmentResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "learntrack",
			Name:      "enrollment_results_total",
			Help:      "Total number of enrollment attempts by outcome",
		},
		[]string{"outcome"},
	)

	// EnrollmentDuration tracks end-to-end enrollment time, remote fetches included.
	EnrollmentDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "learntrack",
			Name:      "enrollment_duration_seconds",
			Help:      "Duration of enrollment in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// LessonCompletions counts CompleteLesson calls.
	// Labels: outcome (completed, noop, error)
	LessonCompletions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "learntrack",
			Name:      "lesson_completions_total",
			Help:      "Total number of lesson completion calls by outcome",
		},
		[]string{"outcome"},
	)

	// XPAwards counts XP engine branches.
	// Labels: branch (first_completion, level_up, normal)
	XPAwards = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "learntrack",
			Name:      "xp_awards_total",
			Help:      "Total number of XP awards by engine branch",
		},
		[]string{"branch"},
	)
)
