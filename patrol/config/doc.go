// Package config manages the puzzle layouts available to the patrol service.
//
// Layouts are stored as JSON files in a config directory:
//
//	{
//	  "name": "example",
//	  "description": "Reference 10x10 patrol",
//	  "layout": ["....#.....", "....^....."]
//	}
//
// The file name without ".json" is the config ID used to create sessions.
// Every file is validated on load: name and description are required and the
// layout must parse into a grid with exactly one start marker.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	puzzle, err := manager.LoadConfig("example")
//	configs, err := manager.ListConfigs()
//
// The default configuration is example.json when present, otherwise the first
// valid file in the directory, otherwise the built-in example layout.
package config
