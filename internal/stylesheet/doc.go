// Package stylesheet renders and edits the text of the shared style node.
//
// # Block Format
//
// Every css fix owns exactly one block:
//
//	/* Fix: <id> */
//	<selector> {
//	  <property>: <value> !important;
//	}
//
// # Sheet
//
// Sheet keeps blocks keyed by fix id in application order. Render
// concatenates them; Remove drops one block by key and leaves every other
// block byte for byte unchanged. Applying an id that already owns a block
// replaces that block and moves it to the end, so the sheet never holds two
// blocks for one id.
//
// # Marked Text
//
// RemoveMarked and MarkedIDs work on rendered text instead of a Sheet. They
// scan for a marker and the first closing brace after it, and exist to scrub
// blocks out of a style node the engine adopted from the page.
package stylesheet
