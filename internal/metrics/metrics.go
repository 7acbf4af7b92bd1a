package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	deploys = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "deployer_deploys_total", Help: "Deploy requests by final status"}, []string{"status"})

	stageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "deployer_stage_duration_seconds",
		Help:    "Time spent in each deploy stage",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
	}, []string{"stage"})

	pagesEnable        = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "deployer_pages_enable_total", Help: "GitHub Pages enable outcomes"}, []string{"result"})
	evaluationAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "deployer_evaluation_attempts_total", Help: "Evaluation callback attempts"}, []string{"outcome"})
	evaluationResults  = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "deployer_evaluation_results_total", Help: "Evaluation callback final results"}, []string{"result"})
)

func init() {
	prometheus.MustRegister(deploys, stageDuration, pagesEnable, evaluationAttempts, evaluationResults)
}

func Handler() http.Handler { return promhttp.Handler() }

func IncDeploy(status string) { deploys.WithLabelValues(status).Inc() }

func ObserveStage(stage string, d time.Duration) { stageDuration.WithLabelValues(stage).Observe(d.Seconds()) }

func IncPagesEnable(result string) { pagesEnable.WithLabelValues(result).Inc() }

func IncEvaluationAttempt(outcome string) { evaluationAttempts.WithLabelValues(outcome).Inc() }

func IncEvaluationResult(result string) { evaluationResults.WithLabelValues(result).Inc() }
