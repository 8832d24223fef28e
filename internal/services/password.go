package services

import (
	"math/rand/v2"
	"slices"
)

// Character classes used by the password generator. Easily confused glyphs
// (I, O, l) are left out.
var randomChars = [...]string{
	"ABCDEFGHJKLMNOPQRSTUVWXYZ",
	"abcdefghijkmnopqrstuvwxyz",
	"0123456789",
	"!@$?_-",
}

const handleChars = "abcdefghijklmnopqrstuvwxyz0123456789"

type PasswordOptions struct {
	RequiredLength         int
	RequiredUniqueChars    int
	RequireUppercase       bool
	RequireLowercase       bool
	RequireDigit           bool
	RequireNonAlphanumeric bool
}

func DefaultPasswordOptions() PasswordOptions {
	return PasswordOptions{
		RequiredLength:         8,
		RequiredUniqueChars:    4,
		RequireUppercase:       true,
		RequireLowercase:       true,
		RequireDigit:           true,
		RequireNonAlphanumeric: true,
	}
}

// GenerateRandomPassword returns a short-lived demo credential. The source is
// math/rand, not crypto/rand.
func GenerateRandomPassword(opts PasswordOptions) string {
	return generatePassword(rand.IntN, opts)
}

func generatePassword(intN func(int) int, opts PasswordOptions) string {
	chars := make([]byte, 0, max(opts.RequiredLength, 4))

	insert := func(class string) {
		c := class[intN(len(class))]
		chars = slices.Insert(chars, intN(len(chars)+1), c)
	}

	if opts.RequireUppercase {
		insert(randomChars[0])
	}
	if opts.RequireLowercase {
		insert(randomChars[1])
	}
	if opts.RequireDigit {
		insert(randomChars[2])
	}
	if opts.RequireNonAlphanumeric {
		insert(randomChars[3])
	}

	unique := min(opts.RequiredUniqueChars, alphabetSize())
	for len(chars) < opts.RequiredLength || distinctCount(chars) < unique {
		insert(randomChars[intN(len(randomChars))])
	}

	return string(chars)
}

func distinctCount(chars []byte) int {
	seen := make(map[byte]struct{}, len(chars))
	for _, c := range chars {
		seen[c] = struct{}{}
	}
	return len(seen)
}

func alphabetSize() int {
	n := 0
	for _, class := range randomChars {
		n += len(class)
	}
	return n
}

// GenerateRandomName suggests an 8 character tenant handle. Uniqueness is
// checked again on submit, so collisions are harmless.
func GenerateRandomName() string {
	b := make([]byte, 8)
	for i := range b {
		b[i] = handleChars[rand.IntN(len(handleChars))]
	}
	return string(b)
}
