// Command vinyasa is the yoga form coach CLI. The coach subcommand runs a
// live session against a keypoint stream; the remaining subcommands inspect
// the performance record (history, bests, trend, sessions), manage the
// reference pose library, rebuild derived state from the event journal, and
// handle configuration.
package main
