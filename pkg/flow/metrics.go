// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	stderrors "errors"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	logins *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "regoidc_logins_total",
		Help: "Completed login flows by flow and outcome.",
	}, []string{"flow", "status"})

	if err := reg.Register(logins); err != nil {
		// Several controllers may share one registry.
		var are prometheus.AlreadyRegisteredError
		if !stderrors.As(err, &are) {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		logins = existing
	}

	return &metrics{logins: logins}, nil
}

func (m *metrics) record(flow, status string) {
	m.logins.WithLabelValues(flow, status).Inc()
}
