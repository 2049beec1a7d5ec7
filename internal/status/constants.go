// internal/status/constants.go
package status

// ---- HEALTH CODES ----

// HealthUnknown represents an unknown or boot state.
const HealthUnknown uint16 = 0

// HealthOK represents a healthy device.
const HealthOK uint16 = 1

// HealthError represents a device error state.
const HealthError uint16 = 2

// ---- ERROR CODES ----

// ErrorCodeGeneric is reported for failures that carry no device code.
const ErrorCodeGeneric uint16 = 1

// ---- LIMITS ----

// SecondsInErrorMax is where seconds_in_error saturates. It never wraps.
const SecondsInErrorMax = 65535
