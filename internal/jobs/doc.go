// Package jobs runs the Ludoteca background tasks.
//
//   - RentalExpiryJob: ticker loop that cancels pending rentals older than
//     RENTAL_PENDING_TTL
//   - TokenCleanupJob: cron-scheduled removal of expired and revoked
//     refresh tokens
//
// Both expose RunOnce for tests and manual triggers, and report each run to
// an optional RunRecorder (the Prometheus job metrics in production).
//
//	expiry := jobs.NewRentalExpiryJob(rentalService, jobMetrics, cfg.Jobs.RentalExpiryInterval)
//	expiry.Start()
//	defer expiry.Stop()
package jobs
