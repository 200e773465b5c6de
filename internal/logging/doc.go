// Package logging provides a small leveled logger for pixel-basket.
//
// Levels, lowest first: DEBUG, INFO, WARN, ERROR. FATAL always prints and
// exits. The level comes from DEBUG=true or LOG_LEVEL and can be replaced at
// runtime with SetLevel (the CLI does this for --verbose).
//
// Scan jobs log through a scoped Logger so every line of one job carries the
// same id:
//
//	log := logging.With(jobID)
//	log.Info("walked %d files", n)
package logging
