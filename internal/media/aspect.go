package media

import "fmt"

// AspectRatio reduces width:height by their greatest common divisor.
// A zero side keeps its zero: (0, h) is "0:1", (w, 0) is "1:0" and (0, 0)
// is "0:0".
func AspectRatio(width, height int) string {
	if width < 0 {
		width = -width
	}
	if height < 0 {
		height = -height
	}
	d := gcd(width, height)
	if d == 0 {
		return "0:0"
	}
	return fmt.Sprintf("%d:%d", width/d, height/d)
}

func gcd(a, b int) int {
	for a != 0 {
		a, b = b%a, a
	}
	return b
}
