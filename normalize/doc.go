// Package normalize turns raw generator output into validated domain values.
//
// Every failure it reports is a *domain.GenerationError of kind
// domain.KindMalformed wrapping domain.ErrValidation, so callers never cache
// a response that did not decode and validate.
//
// Besides decoding, the package repairs the small inconsistencies models
// tend to produce: markdown fences around JSON, invalid tool ids, duplicate
// grounding references, and news stories whose URLs drift from the list of
// pages that were actually consulted.
package normalize
