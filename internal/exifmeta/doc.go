// Package exifmeta reads the handful of EXIF tags the focal-length estimator
// depends on.
//
// Missing tags read as zero values. A file with no EXIF block at all is not an
// error; it simply yields empty Tags. Files that cannot be opened or are not
// decodable images are reported as errors because the caller treats them as
// batch failures.
package exifmeta
