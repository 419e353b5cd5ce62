// Package ranking answers "which resorts in this region give the most
// descent per hour of driving from here".
//
// The Service reads candidates from storage, the Enricher asks a Router for
// the driving time to every candidate concurrently, and the result carries a
// descent efficiency: drop in meters per hour of round-trip travel.
package ranking
