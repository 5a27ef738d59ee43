// Package media handles still image processing: reading dimensions from
// encoded headers and generating downscaled thumbnails for the library UI.
package media
