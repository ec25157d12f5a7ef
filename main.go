// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/pizug/cpi-sync/cmd/cpisync"

func main() {
	cmd.Execute()
}
