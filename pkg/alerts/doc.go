// Package alerts implements user-defined price and availability alerts for
// campsites, evaluated by periodic sweeps against live pricing and
// availability data.
//
// Service owns the synchronous user operations (create, cancel, list).
// Evaluator owns the sweeps: RunPriceSweep fires an alert when the current
// price reaches the target, RunAvailabilitySweep fires when every date of
// the requested stay is available, and RunExpirySweep retires availability
// alerts whose stay has started and recovers claims abandoned by a crashed
// evaluator.
//
// Triggering is at-most-once across evaluator instances. A satisfied alert
// is first claimed by a compare-and-swap status transition; the
// notification is created only under the claim, and the alert moves to
// triggered only after the notification is durably stored. Losing the
// claim race, or failing to deliver, leaves the other path to fire or
// retry without duplicates.
package alerts
