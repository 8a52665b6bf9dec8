// Package main hosts the sfmbundle CLI entrypoint and command graph.
//
// Running the root command in a directory of photographs performs a full
// reconstruction pass: focal length estimation, feature extraction, matching
// and bundle adjustment. Subcommands cover the supporting tasks: writing the
// focal list only, browsing the camera sensor table, checking the toolchain,
// reviewing run history, inspecting key files and shrinking input images.
//
// Keep this package lean: new behavior belongs in the internal packages and
// is surfaced here through commands or flags.
package main
