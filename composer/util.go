package composer

import "strconv"

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

func itoa(i int) string { return strconv.Itoa(i) }

// atoi returns -1 for anything that is not a valid index.
func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
