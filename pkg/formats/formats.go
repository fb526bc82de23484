// Package formats provides parsers for the extracted world data files:
// terrain tile chunks, object placement lists and object location configs.
package formats

// Note: tile chunks are implemented in tiles.go
// Note: placement lists are implemented in locations.go
// Note: location configs are implemented in locconfig.go
