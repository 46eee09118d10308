package domain

// Hasher digests opaque secrets (verification tokens) before they are stored.
type Hasher interface {
	Hash(data []byte) string
}

// PasswordHasher is the port for password hashing strategies.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}
