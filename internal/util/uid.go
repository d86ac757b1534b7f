// Package util holds small helpers shared by the generators and the CLI.
package util

import (
	"crypto/sha256"
	"fmt"
	"math/big"
	"math/rand/v2"
)

// GenerateDeterministicUID derives a DICOM UID under the 2.25 root from seed.
// The same seed always yields the same UID.
func GenerateDeterministicUID(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	n := new(big.Int).SetBytes(sum[:16])
	uid := "2.25." + n.String()
	// UIDs are limited to 64 characters
	if len(uid) > 64 {
		uid = uid[:64]
	}
	return uid
}

var (
	lastNames  = []string{"MARTIN", "BERNARD", "DUBOIS", "SMITH", "JOHNSON", "WILLIAMS", "BROWN", "GARCIA", "MILLER", "DAVIS"}
	firstNames = []string{"ALICE", "BRUNO", "CLAIRE", "DAVID", "EMMA", "FELIX", "GRACE", "HUGO", "IRIS", "JULES"}
)

// GeneratePatientName returns a DICOM PN formatted name (LAST^FIRST).
func GeneratePatientName(rng *rand.Rand) string {
	return fmt.Sprintf("%s^%s", lastNames[rng.IntN(len(lastNames))], firstNames[rng.IntN(len(firstNames))])
}

// GeneratePatientID returns a patient identifier in the PID000000 form.
func GeneratePatientID(rng *rand.Rand) string {
	return fmt.Sprintf("PID%06d", rng.IntN(900000)+100000)
}
