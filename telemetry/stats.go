// Package telemetry exports per-step particle simulation statistics as
// CSV, in the same OutputManager/gocsv style the host application used
// for its own window-stats/perf exports.
package telemetry

// StepStats holds the per-step aggregate statistics the CLI demo and
// tests care about: population counts and a coarse energy figure
// useful for sanity-checking that the simulation isn't gaining energy
// it shouldn't.
type StepStats struct {
	Tick            int32   `csv:"tick"`
	SimTimeSec      float64 `csv:"sim_time"`
	ParticleCount   int     `csv:"particle_count"`
	GroupCount      int     `csv:"group_count"`
	ContactCount    int     `csv:"contact_count"`
	KineticEnergy   float64 `csv:"kinetic_energy"`
	CompactedCount  int     `csv:"compacted_count"`
}
