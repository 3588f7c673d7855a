package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dialogueTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_dialogue_transitions_total",
			Help: "Total number of dialogue transitions by the stage they started from.",
		},
		[]string{"stage"},
	)
	dialogueFallbackRepliesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tutor_dialogue_fallback_replies_total",
			Help: "Total number of replies that involved the generative assistant.",
		},
	)
	engineCacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_engine_cache_requests_total",
			Help: "Engine cache lookups by result (hit, miss, stale).",
		},
		[]string{"result"},
	)
	titleTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_title_tasks_total",
			Help: "Room title tasks by outcome.",
		},
		[]string{"status"},
	)
)
