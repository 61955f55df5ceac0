// Package dotnet wraps the dotnet CLI operations a layered migration needs:
// creating projects, editing the solution manifest, wiring references and
// packages, and running restore, build and test.
package dotnet
