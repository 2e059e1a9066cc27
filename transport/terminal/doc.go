// Package terminal runs a pushbox game on a local terminal.
//
// Run is the game loop: draw, read a token, resolve it through the engine's
// profile, draw again. Input and output are pluggable:
//
//   - RuneInput + TextRenderer: one keystroke per move on stdin, the bordered
//     board printed after every move
//   - Screen: a full-screen tcell view that is both input and renderer;
//     arrow keys always work, Esc or Ctrl-C quits
//
// A BeepChime can be attached with WithChime for audible feedback on pushes
// and blocked moves.
package terminal
