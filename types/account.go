package types

// Account is a freshly generated address/key pair. The private key is only
// ever held in memory; nothing in this module logs or persists it.
type Account struct {
	Address    string
	PrivateKey string
}
