// Package envelope decodes raw push frames into typed envelopes.
//
// The server omits zero/default JSON fields to save bandwidth; optional wire
// fields are parsed as pointers and substituted with their documented
// defaults here, at decode time, so update logic downstream never deals with
// missing fields. Decoding is pure: no state, no side effects.
package envelope
