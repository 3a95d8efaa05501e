package gateway

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ConfirmationPrefix starts every confirmation number.
const ConfirmationPrefix = "APPEAL"

const (
	alphabet     = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	suffixLength = 6
)

// confirmationPattern matches numbers issued by NewConfirmationNumber.
var confirmationPattern = regexp.MustCompile(`^APPEAL-[0-9A-Z]+-[0-9A-Z]{6}$`)

// NewConfirmationNumber builds APPEAL-<base36 unix ms>-<6 random chars>.
func NewConfirmationNumber(now time.Time) string {
	stamp := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))

	var b strings.Builder
	b.Grow(len(ConfirmationPrefix) + len(stamp) + suffixLength + 2)
	b.WriteString(ConfirmationPrefix)
	b.WriteByte('-')
	b.WriteString(stamp)
	b.WriteByte('-')

	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < suffixLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms.
			panic(err)
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String()
}

// IsConfirmationNumber reports whether s has the issued format.
func IsConfirmationNumber(s string) bool {
	return confirmationPattern.MatchString(s)
}
