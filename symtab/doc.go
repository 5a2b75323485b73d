// Package symtab maintains a process-wide table of named symbols (modules,
// classes, methods and functions) addressable by dotted names like
// "geo.Point.Origin". The serialization protocol uses it to turn live
// type/function handles into relocatable names and back.
//
// Resolution results are cached for the life of the process: the table
// assumes symbols are defined once during package initialization and never
// redefined. The table is deliberately unsynchronized; concurrent definition
// is not supported.
package symtab
