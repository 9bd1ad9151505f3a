// Package textutil provides the text normalization shared by the
// transcription normalizer and the script aligner, plus term-frequency
// fingerprints used as a cheap script-vs-transcript sanity check.
//
// Both sides of the alignment must tokenize with the same rules, so the
// comparable token form lives here rather than in either stage.
package textutil
