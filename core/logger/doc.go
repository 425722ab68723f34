// Package logger builds the diagnostic logger used by the executor and the
// console. Records are newline delimited JSON written to the application log.
package logger
