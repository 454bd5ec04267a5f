/*
Package resilience provides a circuit breaker and a picker launcher guarded by it.

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open

# Usage

	launcher := resilience.GuardLauncher(hub, "picker-host", resilience.LauncherSettings(logger))

While the breaker is open Launch and View fail immediately with an Unknown failure
wrapping ErrCircuitOpen. Context cancellation does not count as a host failure.
*/
package resilience
