package main

// setRawIO is a no-op on windows: the teacher's termios-based raw mode has
// no portable equivalent here, so REPL input falls back to line buffering.
func setRawIO() (func(), error) {
	return func() {}, nil
}
