// Package configs provides the embedded configuration template written by
// `codeturtle init`. Embedding at build time keeps the template available
// in every distribution of the binary.
package configs

import _ "embed"

// ProjectConfigTemplate is the template for the project-level
// .codeturtle.yaml configuration file.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
