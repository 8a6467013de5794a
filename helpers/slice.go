package helpers

// Contains reports whether s holds v.
func Contains(s []string, v string) bool {
	for _, item := range s {
		if item == v {
			return true
		}
	}
	return false
}
