// Package bridge executes document actions on behalf of a caller that must never block.
//
// Execute validates nothing on the caller's goroutine: the action runs on a bounded worker
// pool and its single outcome is delivered to the Callback from one delivery goroutine.
// Interactive actions (selectFolder, selectFile, saveFile) register with the correlator,
// hand a picker request to the Launcher and finish when OnPickerResult reports the
// matching request code.
package bridge
