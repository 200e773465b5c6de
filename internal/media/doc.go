// Package media turns files into the facts and derived artifacts the catalog
// stores: fingerprints, thumbnails, palettes and aspect ratios.
//
// Decoding is split by family. ImageLoader handles raster images (imaging,
// optionally libvips shrink-on-load, ffmpeg for formats Go cannot read),
// FFmpeg extracts video frames and durations, DecodeRaw pulls the embedded
// preview and EXIF out of camera raw files and DecodePSD reads the merged
// composite of a Photoshop document.
//
// Everything here is CPU or disk bound and is meant to run on the scan CPU
// pool. Nothing in this package writes to the catalog.
package media
