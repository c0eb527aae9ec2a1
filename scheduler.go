package qaboard

import (
	"github.com/juju/errors"
	"github.com/robfig/cron/v3"
)

// sweepSpec is how often expired limiter entries are dropped.
const sweepSpec = "@every 1m"

// startScheduler starts the background jobs of the app.
func (a *App) startScheduler() error {
	a.cron = cron.New()
	_, err := a.cron.AddFunc(sweepSpec, a.sweepLimiters)
	if err != nil {
		return errors.Annotate(err, "schedule limiter sweep")
	}
	a.cron.Start()
	a.logger.Infof("scheduler started: limiter sweep %s", sweepSpec)
	return nil
}

func (a *App) sweepLimiters() {
	a.loginLimiter.Sweep()
	a.submitLimiter.Sweep()
}

// stopScheduler stops the cron jobs and waits for a running one to finish.
func (a *App) stopScheduler() {
	if a.cron != nil {
		<-a.cron.Stop().Done()
		a.cron = nil
	}
}
