// Package schema discovers collection schemas from a directory of compiled modules.
//
// Each module declares its schema as one exported object literal:
//
//	export const schema = {
//		_id: "3f2a...",
//		icon: "mdi:post",
//		fields: [widgets.Input({ label: "Title", required: true })],
//	};
//
// The reader never executes the module. It locates the declaration, cuts out the
// object literal with a string- and comment-aware brace scanner, and evaluates that
// text with a small expression evaluator that understands literals and calls into a
// registry of widget constructors. Everything else in the file is ignored.
//
// A file that cannot be parsed is logged and skipped; one bad file never fails a scan.
package schema
