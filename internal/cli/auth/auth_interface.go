package auth

// keyringTokenStore implements the session store's TokenStore on the OS keyring
type keyringTokenStore struct{}

// Default is the production token store
var Default = &keyringTokenStore{}

func (k *keyringTokenStore) SaveToken(server, token string) error {
	return SaveToken(server, token)
}

func (k *keyringTokenStore) LoadToken(server string) (string, error) {
	return LoadToken(server)
}

func (k *keyringTokenStore) DeleteToken(server string) error {
	return DeleteToken(server)
}
