// Package language normalizes ISO 639 language codes.
//
// Subtitle sources disagree about language identifiers: some report ISO 639-1
// (2-letter) codes, some report ISO 639-2 (3-letter, occasionally the
// bibliographic variant), and a few report bare English words. This package
// holds the static conversion tables shared by every provider adapter and the
// ranking engine, which canonicalizes candidate languages to 3-letter form.
package language
