// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package app provides Application, a facade owning a main loop, and the
// sources handed to it.
//
// An application emits three signals, which handlers may be connected to via
// object.Connect:
//
//   - "active", exactly once, from the first cycle of the loop
//   - "quit", when Quit is called
//   - "shutdown", after Run returns, with Run's error as the parameter
//
// Configuration may be loaded from an optional YAML file, see LoadConfig.
package app
