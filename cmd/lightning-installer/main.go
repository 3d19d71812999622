// SPDX-FileCopyrightText: 2025 Lightning Platform Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import "os"

func main() {
	os.Exit(execute())
}
