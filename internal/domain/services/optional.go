package services

// Optional carries tri-state PATCH semantics without tying services to JSON:
//   - Present=false: field absent from the request (don't change)
//   - Present=true, Value=nil: clear the field
//   - Present=true, Value!=nil: set the field
type Optional[T any] struct {
	Present bool
	Value   *T
}

// Set builds a present optional holding v
func Set[T any](v T) Optional[T] {
	return Optional[T]{Present: true, Value: &v}
}
