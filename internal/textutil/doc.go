// Package textutil provides small text helpers: filename sanitization for
// persisted audio files and random attempt-unique name tokens.
package textutil
