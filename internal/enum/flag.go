package enum

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"greentic.software/resolver/internal/flags"
)

const Type = "enum"

// Flag defines a flag restricted to a closed set of values. The first
// allowed value acts as the default.
type Flag struct {
	value   string
	allowed []string
}

func (f *Flag) String() string {
	return f.value
}

func (f *Flag) Set(s string) error {
	for _, allowed := range f.allowed {
		if s == allowed {
			f.value = s
			return nil
		}
	}
	return fmt.Errorf("invalid value %q, must be one of %s", s, strings.Join(f.allowed, ", "))
}

func (f *Flag) Type() string {
	return Type
}

func Var(f *pflag.FlagSet, name string, allowed []string, usage string) {
	flag := Flag{value: allowed[0], allowed: allowed}
	f.Var(&flag, name, usage)
}

func VarP(f *pflag.FlagSet, name, shorthand string, allowed []string, usage string) {
	flag := Flag{value: allowed[0], allowed: allowed}
	f.VarP(&flag, name, shorthand, usage)
}

func Get(f *pflag.FlagSet, name string) (string, error) {
	return flags.Get(f, name, Type, func(sval string) (string, error) {
		return sval, nil
	})
}
