// Package analyzer computes pairwise platform distances from a simulator
// observer CSV and writes the distance report and distance matrix next to it.
//
// Distances use a flat-earth approximation in nautical miles: one degree of
// latitude is 60 nm and one degree of longitude is 60*cos(mean latitude) nm.
package analyzer
