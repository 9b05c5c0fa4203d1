// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0
package main

import "github.com/metac-lang/metac/pkg/cmd"

func main() {
	cmd.Execute()
}
