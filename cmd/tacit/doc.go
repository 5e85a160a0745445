// Command tacit compiles and runs TACIT source files, or reads a REPL
// session from stdin when none are given.
package main
