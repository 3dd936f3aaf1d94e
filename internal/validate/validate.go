// Package validate wraps go-playground/validator as the struct-tag
// validation layer for request-shaped domain types, applied at the
// boundary before a payload is projected into anything downstream acts
// on.
package validate

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once sync.Once
	v    *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
	})

	return v
}

// Struct validates s against its `validate` struct tags.
func Struct(s any) error {
	return instance().Struct(s)
}
