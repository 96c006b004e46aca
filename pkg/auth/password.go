package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	BcryptCost = 12
	// MinPasswordLen applies to the bootstrap admin password
	MinPasswordLen = 12
	// MaxPasswordBytes is the most bcrypt will hash
	MaxPasswordBytes = 72
	// minCharClasses of upper, lower, digit and symbol must appear
	minCharClasses = 3
)

var (
	ErrPasswordTooShort    = fmt.Errorf("password must be at least %d characters", MinPasswordLen)
	ErrPasswordTooLong     = fmt.Errorf("password must be at most %d bytes", MaxPasswordBytes)
	ErrPasswordTooSimple   = fmt.Errorf("password must mix at least %d of upper case, lower case, digits and symbols", minCharClasses)
	ErrPasswordHasIdentity = errors.New("password must not contain the account email")
)

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// CompareDummyPassword burns the same bcrypt work as ComparePassword against a
// fixed hash. Use it when no account exists so response time does not reveal
// whether an email is registered. It always returns an error.
func CompareDummyPassword(password string) error {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("vitrine-dummy-password"), BcryptCost)
	})
	if err := bcrypt.CompareHashAndPassword(dummyHash, []byte(password)); err != nil {
		return err
	}
	return bcrypt.ErrMismatchedHashAndPassword
}

// ValidateAdminPassword checks the operator supplied ADMIN_PASSWORD before it
// is hashed. Every violated rule is reported so the operator can fix them all
// at once.
func ValidateAdminPassword(password, email string) error {
	var errs []error

	if len([]rune(password)) < MinPasswordLen {
		errs = append(errs, ErrPasswordTooShort)
	}
	if len(password) > MaxPasswordBytes {
		errs = append(errs, ErrPasswordTooLong)
	}
	if charClasses(password) < minCharClasses {
		errs = append(errs, ErrPasswordTooSimple)
	}

	lower := strings.ToLower(password)
	local, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(email)), "@")
	if len(local) >= 3 && strings.Contains(lower, local) {
		errs = append(errs, ErrPasswordHasIdentity)
	}

	return errors.Join(errs...)
}

func charClasses(password string) int {
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r):
			symbol = true
		}
	}

	n := 0
	for _, ok := range []bool{upper, lower, digit, symbol} {
		if ok {
			n++
		}
	}
	return n
}
