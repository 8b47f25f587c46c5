package helpers

// ConfigOption is one argument in the variadic-options pattern used by constructors such as
// timer.New and harness.NewMockEndpoint.
type ConfigOption[T any] interface {
	// Configure applies the option to the value being built.
	Configure(*T) error
}

// ConfigOptionFunc lets a plain function serve as a ConfigOption.
type ConfigOptionFunc[T any] func(*T) error

func (f ConfigOptionFunc[T]) Configure(target *T) error { return f(target) }

// ApplyOptions applies each option in turn, stopping at the first error.
func ApplyOptions[T any, U ConfigOption[T]](target *T, options ...U) error {
	// U lets callers pass a slice of their own named option type.
	for _, o := range options {
		if err := o.Configure(target); err != nil {
			return err
		}
	}
	return nil
}
