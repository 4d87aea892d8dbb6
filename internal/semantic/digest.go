package semantic

import (
	"strconv"

	"github.com/spaolacci/murmur3"
)

// digestPrecision is the number of decimal digits each dimension is
// rendered with before hashing. Two vectors equal at this precision
// produce identical digests; that equivalence is the whole point of
// the integrity check, not a weakness of it.
const digestPrecision = 6

// digestSeparator joins the rendered dimensions.
const digestSeparator = ';'

// Digest computes the semantic digest of a concept vector: each
// dimension rendered as a fixed-precision decimal string, concatenated
// with a separator and hashed with murmur3. The result is lowercase
// hex. This is an integrity fingerprint, not a cryptographic
// commitment.
func Digest(v *Vector) string {
	buf := make([]byte, 0, Dims*12)

	for _, d := range v.Data {
		buf = strconv.AppendFloat(buf, d, 'f', digestPrecision, 64)
		buf = append(buf, digestSeparator)
	}

	return strconv.FormatUint(murmur3.Sum64(buf), 16)
}
