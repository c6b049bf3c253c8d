package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrderRecalcTotal counts order repricing passes by trigger and outcome.
	OrderRecalcTotal *prometheus.CounterVec
	// OrderRecalcDuration records repricing latency in milliseconds.
	OrderRecalcDuration prometheus.Histogram
	// OrderDiscountDistributedCents sums the order discount amounts actually
	// spread across items, excluding the dropped remainder.
	OrderDiscountDistributedCents prometheus.Counter
	// OrderDiscountRemainderCents sums the undistributable leftover cents.
	OrderDiscountRemainderCents prometheus.Counter
	// CartRejectionsTotal counts cart admissions refused per limit.
	CartRejectionsTotal *prometheus.CounterVec
	// PromotionAssignmentsTotal counts promotion assignments by type and outcome.
	PromotionAssignmentsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrderRecalcTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_recalc_total",
			Help:      "Count of order repricing passes by trigger and outcome.",
		}, []string{"trigger", "result"})
		OrderRecalcDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_recalc_duration_ms",
			Help:      "Latency of order repricing passes in milliseconds.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
		})
		OrderDiscountDistributedCents = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_discount_distributed_cents_total",
			Help:      "Total order discount cents distributed across items.",
		})
		OrderDiscountRemainderCents = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_discount_remainder_cents_total",
			Help:      "Total order discount cents dropped as undistributable remainder.",
		})
		CartRejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_rejections_total",
			Help:      "Count of cart additions refused, by violated limit.",
		}, []string{"limit"})
		PromotionAssignmentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotion_assignments_total",
			Help:      "Count of promotion assignment attempts by type and outcome.",
		}, []string{"type", "result"})

		mustRegisterCollector(reg, OrderRecalcTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrderRecalcTotal = v
			}
		})
		mustRegisterCollector(reg, OrderRecalcDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				OrderRecalcDuration = v
			}
		})
		mustRegisterCollector(reg, OrderDiscountDistributedCents, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				OrderDiscountDistributedCents = v
			}
		})
		mustRegisterCollector(reg, OrderDiscountRemainderCents, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				OrderDiscountRemainderCents = v
			}
		})
		mustRegisterCollector(reg, CartRejectionsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CartRejectionsTotal = v
			}
		})
		mustRegisterCollector(reg, PromotionAssignmentsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PromotionAssignmentsTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register metric: %w", err))
	}
}
