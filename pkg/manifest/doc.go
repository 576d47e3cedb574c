// Package manifest persists the result of a build pass so that a later
// download pass can run without walking the calendar again.
//
// A manifest holds one feed's discovered range and its entry list together.
// They are only ever saved as a pair, which keeps a restored archive as
// consistent as the one that was built.
package manifest
