// Package schema declares the expected shape of every generated response.
//
// Each Descriptor is used twice: the generation adapter turns it into the
// provider's structured-output schema (descriptions become the constraint
// text handed to the model), and the normalizer validates decoded output
// against it. Descriptors are immutable; a shape change must bump Version,
// which is part of every cache key built from it.
package schema
