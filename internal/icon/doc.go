// Package icon embeds application icons into Windows executables by driving
// an external resource editor.
package icon
