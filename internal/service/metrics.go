package service

import (
	"errors"

	"github.com/bagdasarian/ctf-team-engine/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var teamOperationsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ctf",
	Subsystem: "team",
	Name:      "operations_total",
	Help:      "The total number of team operations by result",
}, []string{"operation", "result"})

func observe(operation string, err error) {
	teamOperationsCounter.WithLabelValues(operation, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return "error"
}
