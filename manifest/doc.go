// Package manifest describes IR modules declaratively in YAML and builds
// them through the runtime package.
//
// A manifest names the module, its target and data layout, opaque struct
// types, external globals, function declarations and named metadata:
//
//	module: demo
//	target: x86_64-unknown-linux-gnu
//	structs: [Point]
//	globals:
//	  - {name: origin, type: "%Point"}
//	functions:
//	  - {name: printf, ret: i32, params: [i8], variadic: true}
//	metadata:
//	  - name: llvm.ident
//	    operands:
//	      - [demo 1.0]
//
// Types are spelled void, iN (1 <= N) or %Name for a declared struct. void
// is accepted only as a return type. A scalar metadata operand becomes a
// metadata string and a list becomes a node of its elements, recursively.
//
// Parse and Load reject unknown fields and validate every spelling before
// any foreign state is touched. Build creates the module in a caller-owned
// context and closes it again if any step fails.
package manifest
