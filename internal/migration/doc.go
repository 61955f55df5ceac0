// Package migration converts a single-project ASP.NET Core Web API solution into a layered
// layout. A run probes the environment, derives a plan, backs up the legacy project, scaffolds
// the layer projects, relocates and rewrites sources, wires references and packages, verifies
// the solution and finally offers to drop the legacy project from the manifest.
//
// Stages report their outcomes as StageResult values; only a fatal result stops the run.
package migration
