// Package payload decodes the JSON messages a feed sends and applies them to
// a headless grid of RGB cells.
//
// Two message kinds exist:
//
//	{"type":"init","width":64,"height":32}
//	{"type":"line","y":3,"colors":"<base64 of R,G,B byte triples>"}
//
// An init message sizes the grid; line messages paint one row starting at
// column zero.
package payload
