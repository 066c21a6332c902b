// Package dedupe detects duplicate business-contact records.
//
// Records are normalized field by field (name, phone, address, domain),
// compared by per-field matchers and combined into a weighted score that
// only counts fields present on both sides. Scores are classified as
// duplicate, potential duplicate or distinct against the thresholds in
// Config. Collection scans compare every pair (optionally within blocks)
// and cluster linked pairs with a union-find.
package dedupe
