package lifecycle

import "context"

// Hook describes a named shutdown hook.
type Hook struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Func adapts a shutdown call that cannot fail, like telebot's Stop.
func Func(name string, fn func()) Hook {
	return Hook{Name: name, Fn: func(context.Context) error {
		fn()
		return nil
	}}
}
