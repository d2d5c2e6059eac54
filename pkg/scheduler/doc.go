// Package scheduler runs named background jobs on fixed, independent
// intervals.
//
// Each job gets its own goroutine and ticker; the timers are deliberately
// uncoordinated so one slow sweep never delays another. Jobs run to
// completion and are never run concurrently with themselves. Errors and
// panics are logged and the job stays scheduled.
//
//	s := scheduler.New(scheduler.WithLogger(log))
//	s.AddJob("price-sweep", 5*time.Minute, sweepPrices, scheduler.WithRunOnStart())
//	s.AddJob("retention", 24*time.Hour, sweepRetention)
//	err := s.Start(ctx) // blocks until ctx is cancelled
package scheduler
