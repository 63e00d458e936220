package standard

import (
	"maps"

	"github.com/ChuLiYu/jobtypes/pkg/jobtype"
)

// Classes returns the built-in and standard classes under their default
// names.
func Classes() map[string]*jobtype.Class {
	classes := jobtype.Builtins()
	maps.Copy(classes, map[string]*jobtype.Class{
		"PK":                PK,
		"Name":              Name,
		"Array":             Array,
		"Map":               Map,
		"CompressionMethod": CompressionMethod,
		"Stored":            Stored,
		"Deflate":           Deflate,
		"Zstd":              Zstd,
		"Compressed":        Compressed,
		"JSON":              JSON,
		"Nothing":           Nothing,
		"BLOB":              BLOB,
		"JobOutput":         JobOutput,
	})
	return classes
}
