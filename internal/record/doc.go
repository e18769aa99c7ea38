// Package record provides the dynamic record model used for data files and
// the command line.
//
// A Record maps field names to scalar Values. Value is a sealed interface:
// only String, Number and Bool implement it. Values of different kinds are
// never equal, so Number(1) != String("1") and Bool(true) != Number(1).
// Null, arrays and nested objects are rejected when records are loaded.
//
// Records are treated as immutable. Nothing in this module writes to a
// Record after it has been loaded.
//
// This package imports nothing internal; every other package may import it.
package record
