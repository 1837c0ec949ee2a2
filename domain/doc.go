// Package domain defines the records returned by the directory service and
// the typed errors callers use to tell "this tool does not exist" apart from
// "generation failed, try again".
package domain
