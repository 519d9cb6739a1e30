// Package analysis provides post-processing for motor runs.
//
// Available analyses:
//   - Steady-state operating point under a constant voltage ([SteadyState])
//   - Frequency content of a recorded series ([PowerSpectrum], [DominantFrequency])
package analysis
