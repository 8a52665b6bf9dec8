// Package keyfile converts raw feature extractor output into the compacted,
// gzip-compressed key files consumed by the matcher.
//
// A raw file holds one feature per line, 132 whitespace-separated numbers
// each: two location coordinates, scale, orientation and 128 descriptor
// values. The compacted form starts with a "<count> 128" header and writes
// every feature on eight lines cut at token offsets 4, 24, 44, 64, 84, 104,
// 124 and 132, with the two location tokens swapped.
package keyfile
