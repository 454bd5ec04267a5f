// Package utils provides input validation and tool parameter access.
//
// Validation:
//   - String length and format validation
//   - JSON size and depth validation
//   - ID, tool ID, category and URI validation
//
// Parameters:
//   - Params wraps the loosely typed map decoded from JSON requests
//   - Strings are trimmed, booleans accept "true"/"false" strings
//
// Example Usage:
//
//	p := utils.Params(req.Params)
//	uri, err := p.RequireString("uri")
//	writable, err := p.Bool("writable", true)
//
//	validator := utils.NewJSONSizeValidator(utils.MaxPayloadSize)
//	err := validator.ValidateSize(body)
package utils
