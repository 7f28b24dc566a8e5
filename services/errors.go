// services/errors.go
package services

import "errors"

var (
	// ErrAlreadyVerified rejects work on a match or request that is settled.
	ErrAlreadyVerified = errors.New("already verified")
	// ErrInvalidRequest means the oracle request id is unknown.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrPlayerNotFound means there is no ledger entry for the player.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrProofVerificationFailed means the decryption proof did not check
	// out. Nothing is committed.
	ErrProofVerificationFailed = errors.New("proof verification failed")
	// ErrMatchNotVerified rejects queries that need decrypted data.
	ErrMatchNotVerified = errors.New("match not verified")

	ErrMatchNotFound      = errors.New("match not found")
	ErrMalformedCleartext = errors.New("malformed cleartext")
	ErrEmptyCiphertext    = errors.New("empty ciphertext handle")
	ErrProcessorStopped   = errors.New("processor stopped")
)
