// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// Decrypt opens an encrypted export envelope with the provided passphrase.
// The envelope carries its own pbkdf2 parameters in meta.key (base64 JSON
// with salt, iterations, hash_function and key_length); the ciphertext is
// AES-GCM with the nonce prefixed.
func Decrypt(doc []byte, passphrase string) ([]byte, error) {
	var envelope struct {
		Meta struct {
			Key string `json:"key"`
		} `json:"meta"`
		EncryptedData string `json:"encrypted_data"`
	}

	if err := json.Unmarshal(doc, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse encrypted export: %w", err)
	}

	keyConfigRaw, err := base64.StdEncoding.DecodeString(envelope.Meta.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to decode key config: %w", err)
	}

	var keyConfig struct {
		Salt       string `json:"salt"`
		Iterations int    `json:"iterations"`
		HashFunc   string `json:"hash_function"`
		KeyLength  int    `json:"key_length"`
	}

	if err = json.Unmarshal(keyConfigRaw, &keyConfig); err != nil {
		return nil, fmt.Errorf("failed to parse key config: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(keyConfig.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}

	key := pbkdf2.Key(
		[]byte(passphrase),
		salt,
		keyConfig.Iterations,
		keyConfig.KeyLength,
		sha512.New,
	)

	return openSealed(envelope.EncryptedData, key)
}

func openSealed(encryptedData string, derivedKey []byte) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encryptedData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}

	block, err := aes.NewCipher(derivedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonceSize := aesGCM.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf(
			"ciphertext too short: expected at least %d bytes, got %d",
			nonceSize,
			len(ciphertext),
		)
	}

	nonce := ciphertext[:nonceSize]
	sealed := ciphertext[nonceSize:]

	plaintext, err := aesGCM.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	return plaintext, nil
}
