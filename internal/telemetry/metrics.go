package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики ядра. Экспортируются на /metrics endpoint сервисов.
var (
	// TransitionsApplied — успешно применённые переходы статусов.
	TransitionsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracker_transitions_applied_total",
		Help: "Status transitions applied through the validate-then-transition path",
	})

	// TransitionsRejected — переходы, отклонённые валидатором.
	TransitionsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracker_transitions_rejected_total",
		Help: "Status transitions rejected by structural or prerequisite checks",
	})

	// DependenciesCreated — созданные рёбра зависимостей.
	DependenciesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracker_dependencies_created_total",
		Help: "Dependency edges created through the validated create path",
	})

	// CyclesRejected — попытки создать ребро, замыкающее цикл.
	CyclesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracker_dependency_cycles_rejected_total",
		Help: "Dependency creations rejected because the edge would close a cycle",
	})

	// CascadeEventsDetected — обнаруженные каскадные рекомендации.
	CascadeEventsDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracker_cascade_events_total",
		Help: "Cascade events detected (recommendations only, never applied)",
	})

	// LockWaitSeconds — время ожидания per-entity блокировок.
	LockWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tracker_lock_wait_seconds",
		Help:    "Time spent waiting for per-entity locks",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
	})

	// LockForcedReleases — принудительные освобождения по hold timeout.
	LockForcedReleases = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracker_lock_forced_releases_total",
		Help: "Locks force-released after exceeding the hold timeout",
	})
)
