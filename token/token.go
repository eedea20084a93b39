// Package token generates the random strings carried by login links
// and SMS codes. These are credentials, so generation always uses
// crypto/rand, never math/rand.
package token

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// EmailCharset is the alphabet for email tokens: alphanumerics minus
// the visually ambiguous 0, O, 1, l and I.
const EmailCharset = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// SMSCharset is the alphabet for SMS codes. The digit 0 is excluded
// so a code read aloud never starts with an ambiguous leading zero.
const SMSCharset = "123456789"

// Generator produces token strings of configured lengths.
type Generator struct {
	emailLength int
	smsLength   int
}

func NewGenerator(emailLength, smsLength int) *Generator {
	return &Generator{emailLength: emailLength, smsLength: smsLength}
}

// Email returns a new email token string.
func (g *Generator) Email() (string, error) {
	return randomString(EmailCharset, g.emailLength)
}

// SMS returns a new SMS code string.
func (g *Generator) SMS() (string, error) {
	return randomString(SMSCharset, g.smsLength)
}

func randomString(charset string, length int) (string, error) {
	max := big.NewInt(int64(len(charset)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("token: read random source: %w", err)
		}
		buf[i] = charset[n.Int64()]
	}
	return string(buf), nil
}
