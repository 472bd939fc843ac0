// Package intensity computes summary statistics over intensity channels.
//
// [Calculate] gathers everything in a single Welford pass; the standalone
// helpers compute one statistic each.
package intensity
