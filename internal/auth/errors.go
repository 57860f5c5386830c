package auth

import "errors"

// Sentinel errors for the authentication layer, matched with errors.Is.
var (
	// ErrNoCredential is returned by Load when neither the OS secret service
	// nor the fallback file holds a credential.
	ErrNoCredential = errors.New("no stored credential")

	// ErrCredentialStore covers failures of the storage backends themselves
	// (secret service unavailable and the fallback file unwritable).
	ErrCredentialStore = errors.New("credential store error")

	// ErrTokenRetrieval covers a backend that responded but returned
	// unusable data (corrupt JSON, empty token).
	ErrTokenRetrieval = errors.New("token retrieval error")

	// ErrInitialization is returned when the store cannot determine its
	// fallback file location.
	ErrInitialization = errors.New("credential store initialization error")
)
