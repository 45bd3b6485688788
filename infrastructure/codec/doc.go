// Package codec reads and writes the image files rendered by the host.
//
// Formats are selected by file extension. OpenEXR (.exr) is read and
// written as uncompressed scanlines and round-trips all four float
// channels exactly. Portable Float Map (.pfm) keeps RGB floats exactly but
// carries no alpha. PNG (.png) is quantised to 16 bits per channel on
// write. Decoded images are always float32 RGBA with row 0 at the bottom.
package codec
