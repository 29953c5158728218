// Package frames samples still images from a video at a fixed spacing in
// whole seconds.
//
// The video duration is derived from integer-truncated metadata (frame count
// divided by integer frame rate). Frames are taken at 0, interval, 2*interval
// and so on while below that duration, and named frame_<second>.jpg. Every
// frame is extracted into a private staging directory and committed into the
// destination afterwards, so the destination never holds a partially written
// frame. The first failed grab ends sampling; frames collected before it are
// kept. The staging directory is removed on every return path.
package frames
