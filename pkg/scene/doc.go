// Package scene reads and writes timeline fixtures and edit scripts.
//
// # Overview
//
// A scene is a TOML file describing tracks, items, groups, guides and the
// playhead of one timeline, plus optional engine settings. It stands in for
// the editor's project loading and "add clip" actions so the arrangement
// engine can be driven from the command line, tests and the HTTP API.
//
// # Scene Format
//
//	fps = "25"
//	playhead = 120
//	guides = [0, "4s"]
//
//	[config]
//	tolerance_px = 8
//
//	[[tracks]]
//	name = "V1"
//
//	[[tracks]]
//	name = "V2"
//	locked = true
//
//	[[items]]
//	name = "A"
//	track = 1
//	start = 0
//	duration = "4s"
//	max_duration = 200
//	markers = [10, 40]
//
//	[[items]]
//	name = "fade"
//	kind = "transition"
//	track = 1
//	start = 90
//	duration = 10
//
//	[[groups]]
//	name = "intro"
//	items = ["A", "fade"]
//
// Tracks are numbered from 1 in file order. Items and groups refer to each
// other by name, so names must be unique. Time values are either integer
// frames or strings with an "s" suffix holding seconds, converted with the
// scene's frame rate.
//
// # Edit Scripts
//
// A script is a TOML list of operations applied in order with [Script.Apply]:
//
//	[[ops]]
//	op = "move"
//	item = "A"
//	frame = 120
//	track = 1
//
//	[[ops]]
//	op = "group-move"
//	group = "intro"
//	frames = 25
//	tracks = 1
//
//	[[ops]]
//	op = "group-cut"
//	group = "intro"
//	frame = 50
//
//	[[ops]]
//	op = "insert-space"
//	track = 1
//	frame = 100
//	frames = "2s"
//
// Cuts register their right pieces as "A.2", "A.3" and so on; a group cut
// registers the group it splits off the same way. insert-space without a
// track shifts every unlocked track. group-drag takes a pixel offset dy
// instead of a track delta.
//
// # Export
//
// [WriteJSON] writes the current arrangement with per-track occupancy for
// external tools; [WriteTOML] writes it back as a scene.
package scene
