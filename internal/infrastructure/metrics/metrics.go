package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PaymentMetrics bundles every metric of the payment pipeline.
type PaymentMetrics struct {
	PaymentsCreatedTotal   prometheus.CounterVec
	PaymentsCreatedAmount  prometheus.CounterVec
	PaymentsSubmittedTotal prometheus.CounterVec
	PaymentsFailedTotal    prometheus.CounterVec
	PaymentsRejectedTotal  prometheus.CounterVec

	ApprovalEventsTotal   prometheus.CounterVec
	ApprovalsPendingGauge prometheus.GaugeVec

	SubmissionDuration prometheus.HistogramVec
	BroadcastFeeSat    prometheus.HistogramVec

	PaymentErrorsTotal prometheus.CounterVec
}

func NewPaymentMetrics() *PaymentMetrics {
	return &PaymentMetrics{
		PaymentsCreatedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payments_created_total",
				Help: "Total number of accepted payment requests",
			},
			[]string{"tenant_id", "asset_code"},
		),

		PaymentsCreatedAmount: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payments_created_amount_satoshis_total",
				Help: "Total requested amount in satoshis",
			},
			[]string{"tenant_id", "asset_code"},
		),

		PaymentsSubmittedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payments_submitted_total",
				Help: "Total number of payments broadcast to the network",
			},
			[]string{"tenant_id"},
		),

		PaymentsFailedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payments_failed_total",
				Help: "Total number of payments that failed during submission",
			},
			[]string{"tenant_id", "stage"},
		),

		PaymentsRejectedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payments_rejected_total",
				Help: "Total number of payments rejected by an approver",
			},
			[]string{"tenant_id", "reason"},
		),

		ApprovalEventsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "approval_events_total",
				Help: "Approval callbacks and events by resulting status",
			},
			[]string{"tenant_id", "status"},
		),

		ApprovalsPendingGauge: *promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "approvals_pending",
				Help: "Approvals currently awaiting a decision",
			},
			[]string{"tenant_id"},
		),

		SubmissionDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "payment_submission_duration_seconds",
				Help:    "Time from submission claim to broadcast result",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
			},
			[]string{"tenant_id", "outcome"},
		),

		BroadcastFeeSat: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "payment_fee_satoshis",
				Help:    "Network fee paid per broadcast payment",
				Buckets: prometheus.ExponentialBuckets(100, 4, 8),
			},
			[]string{"tenant_id"},
		),

		PaymentErrorsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_errors_total",
				Help: "Total number of errors while creating or processing payments",
			},
			[]string{"tenant_id", "error_type"},
		),
	}
}

func (m *PaymentMetrics) RecordPaymentCreated(tenantID, assetCode string, amountSat int64, approverCount int) {
	m.PaymentsCreatedTotal.WithLabelValues(tenantID, assetCode).Inc()
	m.PaymentsCreatedAmount.WithLabelValues(tenantID, assetCode).Add(float64(amountSat))
	m.ApprovalsPendingGauge.WithLabelValues(tenantID).Add(float64(approverCount))
}

func (m *PaymentMetrics) RecordApprovalEvent(tenantID, status string) {
	m.ApprovalEventsTotal.WithLabelValues(tenantID, status).Inc()
	m.ApprovalsPendingGauge.WithLabelValues(tenantID).Dec()
}

func (m *PaymentMetrics) RecordPaymentSubmitted(tenantID string, feeSat int64, durationSeconds float64) {
	m.PaymentsSubmittedTotal.WithLabelValues(tenantID).Inc()
	m.BroadcastFeeSat.WithLabelValues(tenantID).Observe(float64(feeSat))
	m.SubmissionDuration.WithLabelValues(tenantID, "success").Observe(durationSeconds)
}

func (m *PaymentMetrics) RecordPaymentFailed(tenantID, stage string, durationSeconds float64) {
	m.PaymentsFailedTotal.WithLabelValues(tenantID, stage).Inc()
	m.SubmissionDuration.WithLabelValues(tenantID, "failure").Observe(durationSeconds)
}

func (m *PaymentMetrics) RecordPaymentRejected(tenantID, reason string) {
	m.PaymentsRejectedTotal.WithLabelValues(tenantID, reason).Inc()
}

func (m *PaymentMetrics) RecordError(tenantID, errorType string) {
	m.PaymentErrorsTotal.WithLabelValues(tenantID, errorType).Inc()
}
