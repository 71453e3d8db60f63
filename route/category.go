package route

import (
	"fmt"
	"math"
)

// Category is the destination class of a message.
type Category uint8

const (
	Small Category = iota + 1
	Medium
	Large
)

// Categories lists every category in ladder order.
var Categories = [...]Category{Small, Medium, Large}

const (
	smallCeiling  = 50
	mediumCeiling = 200
)

func (c Category) String() string {
	switch c {
	case Small:
		return "SMALL"
	case Medium:
		return "MEDIUM"
	case Large:
		return "LARGE"
	default:
		return fmt.Sprintf("Category(%d)", uint8(c))
	}
}

// Key is the lower-case name used in response distributions.
func (c Category) Key() string {
	switch c {
	case Small:
		return "small"
	case Medium:
		return "medium"
	case Large:
		return "large"
	default:
		return ""
	}
}

func (c Category) Valid() bool {
	return c >= Small && c <= Large
}

// ParseCategory matches the exact upper-case category name.
func ParseCategory(s string) (Category, bool) {
	switch s {
	case "SMALL":
		return Small, true
	case "MEDIUM":
		return Medium, true
	case "LARGE":
		return Large, true
	default:
		return 0, false
	}
}

// ForCount applies the threshold ladder. Upper bounds are inclusive and
// NaN is SMALL.
func ForCount(n float64) Category {
	switch {
	case math.IsNaN(n), n <= smallCeiling:
		return Small
	case n <= mediumCeiling:
		return Medium
	default:
		return Large
	}
}
