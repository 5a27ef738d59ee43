// Package mediatypes defines the media kinds handled by the signage system
// and the file extension and MIME type tables used for upload validation
// and streaming responses.
package mediatypes
