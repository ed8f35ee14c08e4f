// Package batteryinfo exposes one battery's telemetry as a cached Reading.
//
// A Reading is acquired once from a powerinfo.Provider. Reading any volatile
// value (charge, state, energy, temperature, time estimates) first checks
// whether the cached values are older than the refresh interval and, if so,
// queries the provider again. The check is lazy: nothing runs in the
// background. Values are stored already converted to the caller's time format
// and temperature unit.
//
// Callers who prefer the I/O to be explicit can call Poll and then read
// Snapshot, which never touches the hardware.
package batteryinfo
