// Package subtitles converts WebVTT cue markup into SRT files.
//
// Conversion is a pure, line-oriented pass: range lines open cues, blank
// lines close them, index lines are regenerated and cue text is reduced to
// the tags SRT players understand. Right-to-left markers emitted by the
// platform are rewritten into Unicode embedding controls so players render
// mixed-direction lines correctly.
package subtitles
