// Package render projects conversation snapshots to the terminal and to an HTML transcript.
package render
