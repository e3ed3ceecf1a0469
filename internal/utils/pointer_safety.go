package utils

// NonEmptyPtr returns nil for the zero value and a pointer to v otherwise.
func NonEmptyPtr[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}
	return &v
}
