// Package secrets seals small records with AES-256-GCM under a key derived
// from a master key with HKDF-SHA256.
//
// Each purpose gets its own derived key, so a sealer for sessions cannot open
// records sealed for anything else:
//
//	key, err := secrets.ParseKey(os.Getenv("SESSION_KEY"))
//	if err != nil {
//		return err
//	}
//	s, err := secrets.NewSealer(key, "session")
//	if err != nil {
//		return err
//	}
//	blob, err := s.Seal(data, []byte("currentSession"))
//
// Sealed output is nonce || ciphertext || tag. Open fails with
// ErrDecryptionFailed when the record was modified, sealed under another key
// or bound to other additional data.
//
// Generate a key with GenerateKey and store it base64 encoded.
package secrets
