package models

import "fmt"

var sizeUnits = []string{"B", "KB", "MB", "GB"}

// FormatSize renders a byte count with one decimal place using 1024-based
// units, or "Unknown" when the size was never learned.
func FormatSize(size *int64) string {
	if size == nil || *size <= 0 {
		return "Unknown"
	}

	value := float64(*size)
	for _, unit := range sizeUnits {
		if value < 1024.0 {
			return fmt.Sprintf("%.1f %s", value, unit)
		}
		value /= 1024.0
	}
	return fmt.Sprintf("%.1f TB", value)
}
