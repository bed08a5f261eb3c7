package solana

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Well-known program IDs.
const (
	TokenProgramID                  = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	AssociatedTokenAccountProgramID = "ATokenGPvbdGVxr1b1hvZbsiqW5xWH25efTNsLJA8knL"
)

// PublicKeyLength is the decoded size of an account address.
const PublicKeyLength = 32

// ErrInvalidAddress is returned for strings that are not base58 public keys.
var ErrInvalidAddress = errors.New("invalid solana address")

// DecodeAddress decodes a base58 address into its 32-byte form.
func DecodeAddress(address string) ([]byte, error) {
	if len(address) < 32 || len(address) > 44 {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidAddress, len(address))
	}
	decoded, err := base58.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(decoded) != PublicKeyLength {
		return nil, fmt.Errorf("%w: decoded %d bytes", ErrInvalidAddress, len(decoded))
	}
	return decoded, nil
}

// IsValidAddress reports whether address passes length and charset checks.
func IsValidAddress(address string) bool {
	_, err := DecodeAddress(address)
	return err == nil
}

// IsOnCurve reports whether the 32 bytes are a valid ed25519 point.
func IsOnCurve(point []byte) bool {
	if len(point) != PublicKeyLength {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}

// FindProgramAddress derives a program derived address and its bump seed.
// Bumps are tried from 255 down until the hash falls off the curve.
func FindProgramAddress(seeds [][]byte, programID string) (string, byte, error) {
	program, err := DecodeAddress(programID)
	if err != nil {
		return "", 0, fmt.Errorf("decode program id: %w", err)
	}

	for bump := 255; bump >= 0; bump-- {
		data := make([]byte, 0, 128)
		for _, seed := range seeds {
			data = append(data, seed...)
		}
		data = append(data, byte(bump))
		data = append(data, program...)
		data = append(data, []byte("ProgramDerivedAddress")...)

		hash := sha256.Sum256(data)
		if !IsOnCurve(hash[:]) {
			return base58.Encode(hash[:]), byte(bump), nil
		}
	}

	return "", 0, errors.New("unable to find a viable program address bump")
}

// AssociatedTokenAddress returns the associated token account of owner for mint.
// Seeds: [owner, token_program, mint] under the ATA program.
func AssociatedTokenAddress(owner, mint string) (string, error) {
	ownerBytes, err := DecodeAddress(owner)
	if err != nil {
		return "", fmt.Errorf("decode owner: %w", err)
	}
	mintBytes, err := DecodeAddress(mint)
	if err != nil {
		return "", fmt.Errorf("decode mint: %w", err)
	}
	tokenProgram, err := DecodeAddress(TokenProgramID)
	if err != nil {
		return "", err
	}

	addr, _, err := FindProgramAddress([][]byte{ownerBytes, tokenProgram, mintBytes}, AssociatedTokenAccountProgramID)
	return addr, err
}
