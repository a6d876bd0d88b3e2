//go:build !prod

package database

// GetDefaultDBPath returns the database path for development builds. The file
// sits next to the working directory so it is easy to inspect.
func GetDefaultDBPath() string {
	return "proof.db"
}

func IsDevelopment() bool {
	return true
}
