// Package roster implements the roster script codec.
//
// The roster script (select.def) is the engine's own configuration file:
// line-oriented, ;-prefixed comments, [Section] headers, key = value
// directives, and bare entry lines inside [Characters] and [ExtraStages].
// Users hand-edit it, screenpack authors lay entries out in manual grids,
// and the engine's parser reads it directly, so the codec's first duty is
// to never lose a byte it did not intend to change:
//
//   - Render(Parse(text)) == text for any previously-unedited input.
//   - Every edit rewrites only the targeted line(s).
//   - Lines matching no known grammar are preserved verbatim in place.
//   - Disabling an entry prefixes its line with the ; comment marker;
//     enabling removes exactly that marker. The convention is shared with
//     the engine's parser and is treated as a wire format.
//
// The codec is stateless and never touches disk; persistence goes through
// core/scriptio (backup + atomic replace).
package roster
