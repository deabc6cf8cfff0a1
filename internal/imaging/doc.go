// Package imaging shrinks pictures before they are encrypted and sent.
//
// Prepare decodes JPEG, PNG, GIF, WebP or BMP input, scales it down so it
// is at most MaxWidth pixels wide, flattens transparency onto white and
// re-encodes it as JPEG. The result travels as a data URL (DataURL) so
// receivers can tell the format from the plaintext alone.
package imaging
