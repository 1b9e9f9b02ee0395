package knox

// pick resolves a setting with precedence CLI > local config > global
// config. The CLI value wins only when its flag was set explicitly and is
// also the fallback, so flag defaults apply when no config sets a value.
func pick[T any](changed bool, cli T, local, global *T) T {
	if changed {
		return cli
	}
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return cli
}

// pickSlice is pick for list settings, where an empty list means unset.
func pickSlice(changed bool, cli, local, global []string) []string {
	if changed {
		return cli
	}
	if len(local) > 0 {
		return local
	}
	if len(global) > 0 {
		return global
	}
	return cli
}
