package domain

// CodeHasher one-way hashes invite codes. The stored value is never
// reversible; verification goes through Compare only.
type CodeHasher interface {
	Hash(code string) (string, error)
	Compare(hash, code string) error
}

// CredentialGenerator produces invite codes and temporary passwords.
type CredentialGenerator interface {
	InviteCode() (string, error)
	TemporaryPassword() (string, error)
}
