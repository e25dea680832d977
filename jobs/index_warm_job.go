package jobs

import (
	"context"
	"time"

	"github.com/brandrank/audit-backend/services"
	"github.com/brandrank/audit-backend/shared"
	"github.com/sirupsen/logrus"
)

// IndexWarmJob keeps the company-name index warm so the first search after a
// quiet period does not pay the rebuild fetch.
type IndexWarmJob struct {
	Index    *services.CompanyIndexService
	Interval time.Duration
	Clock    shared.Clock
}

func NewIndexWarmJob(index *services.CompanyIndexService, interval time.Duration, clock shared.Clock) *IndexWarmJob {
	return &IndexWarmJob{
		Index:    index,
		Interval: interval,
		Clock:    clock,
	}
}

func (j *IndexWarmJob) Start() {
	logrus.Infof("Starting Company Index Warm Job (runs every %v)...", j.Interval)
	ticker := j.Clock.NewTicker(j.Interval)

	go func() {
		// Run immediately on start
		j.Run()

		for range ticker.C() {
			j.Run()
		}
	}()
}

func (j *IndexWarmJob) Run() {
	startTime := j.Clock.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	names, err := j.Index.KnownCompanyNames(ctx)
	if err != nil {
		if shared.IsRateLimited(err) {
			logrus.Warn("Company Index Warm Job: rate limited, skipping this cycle")
		} else {
			logrus.Errorf("Company Index Warm Job failed: %v", err)
		}
		return
	}

	logrus.Infof("Company Index Warm Job completed: %d company names indexed (took %v)",
		len(names), j.Clock.Now().Sub(startTime))
}
