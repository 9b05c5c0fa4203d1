// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0

// Command gen regenerates pkg/dump/banner_string.go, the same
// bavard.NewBatchGenerator/Entry call shape
// Consensys-go-corset/field/internal/generator/main.go uses to stamp a
// "code generated, do not edit" banner above generated field-element code
// — here applied to generate the banner constant itself rather than a
// cryptographic routine, since this package's only generated artifact is
// the textual banner pkg/dump.Module stamps above instantiated functions.
package main

import "github.com/consensys/bavard"

const copyrightHolder = "the metac authors"

//go:generate go run main.go
func main() {
	bgen := bavard.NewBatchGenerator(copyrightHolder, 2026, "metac")

	err := bgen.Generate(nil, "dump", "templates",
		bavard.Entry{
			File:      "../banner_string.go",
			Templates: []string{"banner.go.tmpl"},
		},
	)
	if err != nil {
		panic(err)
	}
}
