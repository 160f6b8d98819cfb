package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// submissionsTotal cuenta envios por resultado:
	// scored, saved, save_failed, incomplete, invalid, not_loaded.
	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assessment_submissions_total",
		Help: "Total assessment submissions by result",
	}, []string{"result"})

	scoringDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "assessment_scoring_duration_seconds",
		Help:    "Time spent scoring one assessment",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	})

	guidanceTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guidance_generations_total",
		Help: "Total guidance generations by mode and result",
	}, []string{"mode", "result"})
)
