// Package admission throttles queued review jobs into the workflow engine.
//
// A Controller handles one batch at a time. It reads the number of running
// executions, derives the free slots, and gives every message exactly one
// Outcome: started, already running, rescheduled, discarded, abandoned for
// age, or deferred for lack of capacity. Executions are named after the
// queue message id so redelivery never launches the same job twice.
package admission
