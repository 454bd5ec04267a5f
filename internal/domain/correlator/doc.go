/*
Package correlator pairs interactive requests with the asynchronous results that
eventually answer them.

A request moves through

	Created → AwaitingExternalResult → Completed | Cancelled | Abandoned

Begin creates the entry and hands back a Token to pass to the picker. Complete moves it
to Completed when the picker echoes the token back; Cancel covers a launch that failed
synchronously. Entries whose result never arrives stay Abandoned: nothing reaps them.

Tokens pack the action kind into the high 16 bits and a wrapping 16-bit sequence into
the low bits, so at most 65536 requests of one kind can be outstanding before a new one
displaces the oldest.

SaveFile payloads wait in a stash keyed by the completion handle id, guarded by the same
lock as the pending table.
*/
package correlator
