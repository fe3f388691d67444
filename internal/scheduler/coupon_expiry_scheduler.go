package scheduler

import (
	"context"
	"time"

	"github.com/lfk/lfk-backend/pkg/logger"
	"github.com/lfk/lfk-backend/pkg/metrics"
	"github.com/robfig/cron/v3"
)

const couponExpiryJob = "coupon_expiry"

// CouponDeactivator switches off coupons whose validity window has closed.
type CouponDeactivator interface {
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// CouponExpiryScheduler runs the coupon expiry sweep on a cron schedule.
type CouponExpiryScheduler struct {
	cron    *cron.Cron
	spec    string
	coupons CouponDeactivator
	metrics *metrics.JobMetrics
	now     func() time.Time
	timeout time.Duration
}

func NewCouponExpiryScheduler(spec string, coupons CouponDeactivator, m *metrics.JobMetrics) *CouponExpiryScheduler {
	return &CouponExpiryScheduler{
		cron:    cron.New(),
		spec:    spec,
		coupons: coupons,
		metrics: m,
		now:     time.Now,
		timeout: time.Minute,
	}
}

func (s *CouponExpiryScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() {
		_ = s.RunOnce(context.Background())
	}); err != nil {
		logger.Error("Failed to add cron job for coupon expiry", err, map[string]interface{}{
			"schedule": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Coupon expiry scheduler started", map[string]interface{}{
		"schedule": s.spec,
	})
	return nil
}

// RunOnce performs a single sweep.
func (s *CouponExpiryScheduler) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	count, err := s.coupons.DeactivateExpired(ctx, s.now())
	s.metrics.Observe(couponExpiryJob, time.Since(started), err)
	if err != nil {
		logger.Error("Coupon expiry sweep failed", err, nil)
		return err
	}

	logger.Info("Coupon expiry sweep finished", map[string]interface{}{
		"deactivated": count,
	})
	return nil
}

// Stop waits for a running sweep to finish.
func (s *CouponExpiryScheduler) Stop() {
	logger.Info("Stopping coupon expiry scheduler", nil)
	<-s.cron.Stop().Done()
	logger.Info("Coupon expiry scheduler stopped", nil)
}
