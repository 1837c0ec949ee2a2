// Package generate calls the generative model.
//
// Generator is the collaborator contract: a prompt plus optional schema and
// grounding directives in, response text and grounding references out.
// Gemini implements it on google.golang.org/genai. Client guards any
// Generator with a timeout, rate limiter, bulkhead and circuit breaker, and
// classifies every failure into a *domain.GenerationError. Nothing in this
// package retries.
package generate
