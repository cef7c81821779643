package flags

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Def defines a command-line flag bound to a viper configuration key.
type (
	Type interface {
		string | int | bool
	}

	Def[T Type] struct {
		Name         string
		ViperKey     string
		DefaultValue T
		Description  string
	}
)

// Declare declares the flags on fs and binds them to their viper keys.
func Declare[T Type](v *viper.Viper, fs *pflag.FlagSet, defs []Def[T]) error {
	for _, def := range defs {
		if err := declare(v, fs, def); err != nil {
			return err
		}
	}
	return nil
}

// MustDeclare is Declare for package init blocks.
func MustDeclare[T Type](v *viper.Viper, fs *pflag.FlagSet, defs []Def[T]) {
	if err := Declare(v, fs, defs); err != nil {
		panic(err)
	}
}

// declare declares a single flag; T determines the flag type.
func declare[T Type](v *viper.Viper, fs *pflag.FlagSet, def Def[T]) error {
	switch value := any(def.DefaultValue).(type) {
	case string:
		fs.String(def.Name, value, def.Description)
	case int:
		fs.Int(def.Name, value, def.Description)
	case bool:
		fs.Bool(def.Name, value, def.Description)
	}

	if err := v.BindPFlag(def.ViperKey, fs.Lookup(def.Name)); err != nil {
		return fmt.Errorf("failed to bind flag %s: %w", def.Name, err)
	}

	return nil
}
