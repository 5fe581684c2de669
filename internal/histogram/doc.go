// Package histogram renders file size distributions as raster images.
//
// Figures are drawn with gonum/plot onto its in-memory raster canvas, so
// rendering never needs a display server. The vertical (count) axis is
// always logarithmic; the horizontal (size) axis is linear or logarithmic
// depending on Config.XScale.
package histogram
