// Package palette derives a small ordered colour palette from album artwork.
//
// [Extract] decodes PNG, JPEG, GIF or WebP bytes, downsamples to a fixed working size, and reduces the
// colour population with median-cut quantization. The result is ordered by how many working pixels each
// colour represents and always has exactly the requested number of entries, cycling when the image has
// fewer distinct clusters.
//
// The same bytes and count always produce the same palette.
//
// [FallbackPalette] is the rainbow spectrum used when there is no artwork to sample.
package palette
