// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual stream properties including frame count and rates
//
// Inspect executes ffprobe and returns a parsed Result. The helpers on Result
// reduce that to the integer frame count and frame rate frame sampling needs.
package ffprobe
