/*
Copyright © 2025 Fleetscout Authors
SPDX-License-Identifier: Apache-2.0
*/
package main

import "github.com/fleetscout/fleetscout/pkg/cli"

func main() {
	cli.Execute()
}
