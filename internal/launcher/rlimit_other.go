//go:build !linux

package launcher

// Memory and CPU ceilings are only enforced on Linux.
func applyResourceLimits(pid int, limits Limits) error {
	return nil
}
