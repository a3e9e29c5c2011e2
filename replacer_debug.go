//go:build arcreplacer_debug

package arcreplacer

import "github.com/arcreplacer/arcreplacer/internal/diag"

const debugging = true

func assert(cond bool, message string) {
	if !cond {
		panic(diag.NewViolation(message))
	}
}
