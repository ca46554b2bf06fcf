// Package cli implements the movieweb admin command line.
//
// Every command loads the layered configuration, opens the configured
// storage backend through app.App and prints its result as JSON on stdout.
// Failures are printed as {"error": ..., "kind": ...} on stderr and mapped
// to a non-zero exit code per error kind:
//
//	invalid_input    2
//	not_found        3
//	conflict         4
//	unsupported      5
//	storage_failure  6
//	anything else    1
package cli
