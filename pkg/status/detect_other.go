//go:build !windows

package status

func queryProcessorArchitecture() string { return "" }

// There is no registry to consult, so nothing is ever detected as installed.
func registryKeyExists(RegistryRoot, string) (bool, error) {
	return false, nil
}
