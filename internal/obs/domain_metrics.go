package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CheckoutTotal counts checkout submissions by order type and result.
	CheckoutTotal *prometheus.CounterVec
	// PricingRounding observes the magnitude of rounding adjustments in paise.
	PricingRounding prometheus.Histogram
	// LoyaltyRedeemTotal counts point redemption outcomes.
	LoyaltyRedeemTotal *prometheus.CounterVec
	// LoyaltyAwardTotal counts point award outcomes.
	LoyaltyAwardTotal *prometheus.CounterVec
	// ShippingQuoteTotal counts shipping quotes by rate band and result.
	ShippingQuoteTotal *prometheus.CounterVec
	// ShippingWebhookTotal counts courier webhook deliveries by courier and result.
	ShippingWebhookTotal *prometheus.CounterVec
	// PaymentSessionTotal counts checkout session creations by provider and result.
	PaymentSessionTotal *prometheus.CounterVec
	// SplitMismatchTotal counts rejected in-store split payments.
	SplitMismatchTotal prometheus.Counter
	// StockLowTotal counts low-stock events raised by inventory adjustments.
	StockLowTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CheckoutTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Count of checkout submissions by order type and result.",
		}, []string{"order_type", "payment_method", "result"})
		PricingRounding = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pricing_rounding_paise",
			Help:      "Absolute rounding adjustment applied to order totals, in paise.",
			Buckets:   []float64{1, 5, 10, 25, 50},
		})
		LoyaltyRedeemTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loyalty_redeem_total",
			Help:      "Count of loyalty point redemption outcomes.",
		}, []string{"result"})
		LoyaltyAwardTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loyalty_award_total",
			Help:      "Count of loyalty point award outcomes.",
		}, []string{"result"})
		ShippingQuoteTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shipping_quote_total",
			Help:      "Count of shipping quotes by rate band and result.",
		}, []string{"band", "result"})
		ShippingWebhookTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shipping_webhook_total",
			Help:      "Count of courier webhook deliveries by courier and result.",
		}, []string{"courier", "result"})
		PaymentSessionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_session_total",
			Help:      "Count of checkout session creations by provider and result.",
		}, []string{"provider", "result"})
		SplitMismatchTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "split_payment_mismatch_total",
			Help:      "Number of in-store split payments rejected for not reconciling.",
		})
		StockLowTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_low_total",
			Help:      "Number of low-stock events raised by inventory adjustments.",
		})

		registerDomain(reg, CheckoutTotal, func(c prometheus.Collector) {
			if v, ok := c.(*prometheus.CounterVec); ok {
				CheckoutTotal = v
			}
		})
		registerDomain(reg, PricingRounding, func(c prometheus.Collector) {
			if v, ok := c.(prometheus.Histogram); ok {
				PricingRounding = v
			}
		})
		registerDomain(reg, LoyaltyRedeemTotal, func(c prometheus.Collector) {
			if v, ok := c.(*prometheus.CounterVec); ok {
				LoyaltyRedeemTotal = v
			}
		})
		registerDomain(reg, LoyaltyAwardTotal, func(c prometheus.Collector) {
			if v, ok := c.(*prometheus.CounterVec); ok {
				LoyaltyAwardTotal = v
			}
		})
		registerDomain(reg, ShippingQuoteTotal, func(c prometheus.Collector) {
			if v, ok := c.(*prometheus.CounterVec); ok {
				ShippingQuoteTotal = v
			}
		})
		registerDomain(reg, ShippingWebhookTotal, func(c prometheus.Collector) {
			if v, ok := c.(*prometheus.CounterVec); ok {
				ShippingWebhookTotal = v
			}
		})
		registerDomain(reg, PaymentSessionTotal, func(c prometheus.Collector) {
			if v, ok := c.(*prometheus.CounterVec); ok {
				PaymentSessionTotal = v
			}
		})
		registerDomain(reg, SplitMismatchTotal, func(c prometheus.Collector) {
			if v, ok := c.(prometheus.Counter); ok {
				SplitMismatchTotal = v
			}
		})
		registerDomain(reg, StockLowTotal, func(c prometheus.Collector) {
			if v, ok := c.(prometheus.Counter); ok {
				StockLowTotal = v
			}
		})
	})
}

func registerDomain(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
