package physics

import (
	"fmt"
	"log"
)

// assert logs msg when truth is false and hands truth back so callers can
// bail out.
func assert(truth bool, msg ...interface{}) bool {
	if !truth {
		log.Println("Assertion failed:", fmt.Sprint(msg...))
	}
	return truth
}
