package commands

import (
	"fmt"

	"github.com/rush4n/SSSMS-Academic-Portal/internal/cli/auth"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/cli/client"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/cli/session"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/cli/userconfig"
)

// keyringSource feeds the stored credential to the HTTP client. The
// session store stays the only writer; this only reads.
type keyringSource struct {
	server string
}

func (k keyringSource) Token() (string, error) {
	return auth.LoadToken(k.server)
}

// resolveServer returns the configured server URL
func resolveServer() (string, error) {
	serverURL, err := userconfig.GetServerURL()
	if err != nil {
		return "", err
	}
	if serverURL == "" {
		return "", fmt.Errorf("no server configured. Run 'sssms login --server <url>' first")
	}
	return serverURL, nil
}

// newPortal wires the API client and session store for the configured server
func newPortal() (*client.Client, *session.Store, error) {
	serverURL, err := resolveServer()
	if err != nil {
		return nil, nil, err
	}

	apiClient := client.New(serverURL, keyringSource{server: serverURL})
	store := session.NewStore(apiClient, auth.Default, serverURL)
	return apiClient, store, nil
}
