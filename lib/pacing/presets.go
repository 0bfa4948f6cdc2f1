package pacing

// Presets are alternative configuration instances, not distinct code
// paths. Bounds are in seconds.
var (
	Conservative = Config{
		Search:  Bounds{Min: 3, Max: 8},
		Contact: Bounds{Min: 5, Max: 12},
		Decrypt: Bounds{Min: 3, Max: 7},
		Range:   Bounds{Min: 8, Max: 15},
	}
	Balanced = Config{
		Search:  Bounds{Min: 2, Max: 5},
		Contact: Bounds{Min: 3, Max: 8},
		Decrypt: Bounds{Min: 2, Max: 5},
		Range:   Bounds{Min: 5, Max: 10},
	}
	Fast = Config{
		Search:  Bounds{Min: 1, Max: 2},
		Contact: Bounds{Min: 1, Max: 3},
		Decrypt: Bounds{Min: 1, Max: 2},
		Range:   Bounds{Min: 2, Max: 6},
	}
)

var Presets = map[string]Config{
	"conservative": Conservative,
	"balanced":     Balanced,
	"fast":         Fast,
}
