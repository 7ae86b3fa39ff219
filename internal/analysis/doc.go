// Package analysis inspects recorded control traces.
//
//   - [PowerSpectrum] and [DominantFrequency]: oscillation in a steering or
//     pedal trace
//   - [NewPortrait]: ASCII scatter of one trace column against another
//   - [Crossings]: level crossings, used to count limit-cycle periods
//
// A steering trace whose dominant frequency sits well above the command
// frequency usually means the steering gains are too aggressive:
//
//	freq, _ := analysis.DominantFrequency(trace.Column("steering"), dt)
package analysis
