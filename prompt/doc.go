// Package prompt builds the instruction text sent to the generative model.
//
// All operations share one template set. Builders are pure: the same inputs
// always produce the same prompt, and user-supplied strings are embedded
// verbatim between double quotes.
package prompt
