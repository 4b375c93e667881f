// Package textutil provides text processing utilities for pose labels and
// narration strings.
//
// The primary use cases are:
//   - Normalizing user-supplied pose names into canonical snake_case labels
//   - Humanizing labels into spoken titles for the narrator
//   - Token-based similarity for "did you mean" label suggestions
//
// Similarity uses term frequency vectors normalized for efficient comparison.
// The tokenization process lowercases text, splits on non-alphanumeric
// characters, and filters tokens shorter than 3 characters.
package textutil
