package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	// Interactions counts post interactions issued through live sessions,
	// labelled by kind: like, unlike, comment, comment_delete, post_delete.
	Interactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "archives_interactions_total",
		Help: "Post interactions issued through live sessions.",
	}, []string{"kind"})

	// Reconciliations counts subscription updates applied to local state.
	Reconciliations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archives_reconciliations_total",
		Help: "Subscription updates applied over local optimistic state.",
	})

	// InteractionFailures counts store writes that failed and were rolled back.
	InteractionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "archives_interaction_failures_total",
		Help: "Interaction store writes that failed.",
	}, []string{"kind"})

	// NotificationFailures counts fire-and-forget notification side effects
	// that could not be persisted or removed.
	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archives_notification_failures_total",
		Help: "Notification side effects that failed.",
	})
)

// Serve exposes /metrics and /health on the given port in the background
func Serve(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		logrus.Infof("metrics server listening on :%s", port)
		if err := http.ListenAndServe(":"+port, mux); err != nil {
			logrus.WithError(err).Error("metrics server stopped")
		}
	}()
}
