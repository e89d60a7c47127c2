//go:build !cgo

package input

// ProbeKeyboard checks that a uinput keyboard can be created, which is the
// only replay path in a build without cgo.
func ProbeKeyboard() error {
	u, err := OpenUinput("macrorec-check")
	if err != nil {
		return err
	}
	return u.Close()
}
