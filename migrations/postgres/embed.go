// SPDX-License-Identifier: Apache-2.0

// Package postgres holds the migrations of the samplekit sink schema.
package postgres

import "embed"

//go:embed *.sql
var FS embed.FS
