//go:build !linux && !darwin && !windows

package beep

func Init()        {}
func play([]int16) {}
