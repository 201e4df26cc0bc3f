// Package catalog declares mapped types in YAML.
//
// A catalog lists enums, bitmasks, bools and aliases over native types:
//
//	version: "1"
//	model: wasm32
//	types:
//	  - name: color
//	    kind: enum
//	    values: [red, green, {name: blue, value: 4}]
//	  - name: perm
//	    kind: bitmask
//	    native: uchar
//	    values: [read, write, exec]
//	  - name: handle
//	    kind: alias
//	    native: pointer
//	    reference_required: true
//
// Enum values without an explicit value continue from the previous one,
// starting at zero. Bitmask flags without one take the bit above the
// previous flag, starting at 1.
// Build turns a parsed File into mapped types.
package catalog
