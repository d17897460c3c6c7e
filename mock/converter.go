package mock

import "github.com/fwojciec/carlot"

var _ carlot.Converter = (*Converter)(nil)

// Converter is a mock implementation of carlot.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
