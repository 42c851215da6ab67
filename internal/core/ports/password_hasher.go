package ports

// PasswordHasher is a one-way hash with verify capability.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify reports whether password matches encodedHash. A non-nil error
	// means the hash itself could not be interpreted.
	Verify(password, encodedHash string) (bool, error)
}
