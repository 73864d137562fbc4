// Package review turns a review job into a normalized result.
//
// The Processor stages documents locally, picks a request strategy from the
// model's capabilities, and runs the agent. The raw response is reduced to a
// Draft by Extract and ToDraft, and Complete fills every field the review
// type requires. Parsing never fails a review: output without a usable
// payload becomes a low-confidence fail.
package review
