// Package segment aligns time-synchronous series sampled at different hops
// and cuts cross-series-aligned windows out of them.
//
// A hop is the number of base samples one element spans: a waveform has hop 1,
// a frame-rate feature with a 256-sample stride has hop 256. The unit of a
// working set is the lcm of its hops, the shortest span every series can
// represent with whole elements. MatchLength trims (and optionally tiles) a
// working set to a whole number of units; ClipSegment and ClipSegmentRandom
// cut unit-aligned windows from the result.
//
// Every function is pure: inputs are never mutated and outputs are freshly
// allocated, so calls are safe from concurrent goroutines.
package segment
