// Package types provides shared data structures for the docbridge backend.
//
// Core Types:
//   - Service: Service provider definition
//   - Tool: Service tool definition
//   - Context: Execution context for operations
//   - Result: Standard operation result
//
// Request Types:
//   - ExecuteRequest: Service tool execution
//   - PickerMessage: Picker host WebSocket communication
//
// Example Usage:
//
//	result := &types.Result{
//	    Success: true,
//	    Data:    map[string]interface{}{"uri": node.URI},
//	}
package types
