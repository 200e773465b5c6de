// Package mediatypes maps file extensions to media families.
//
// It has no dependencies outside the standard library so that the scanner,
// indexer and handler packages can share it without import cycles.
//
// Extensions are stored lower case without the leading dot. NormalizeExt
// accepts a path, a dotted extension or a bare one:
//
//	ext := mediatypes.NormalizeExt("/photos/IMG_0001.JPG") // "jpg"
//	switch mediatypes.FamilyOf(ext) {
//	case mediatypes.FamilyImage:
//	    // decode in-process
//	case mediatypes.FamilyVideo:
//	    // shell out to ffmpeg
//	}
package mediatypes
