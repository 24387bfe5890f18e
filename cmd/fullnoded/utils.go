package main

import "os"

// fileExists checks path exists and is readable, exactly the check the
// teacher's cmd.FileExists runs before trusting a config-file path.
func fileExists(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	return true
}
