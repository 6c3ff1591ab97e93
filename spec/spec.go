// Package spec embeds the OpenAPI description of the ATag API.
// It is imported by the HTTP server to serve the document at /openapi.yaml.
package spec

import _ "embed"

// Handler types can be regenerated from this document; the handler package's
// route test keeps the two in step.
//
//go:generate go run github.com/oapi-codegen/oapi-codegen/v2/cmd/oapi-codegen@v2.5.1 -generate types,chi-server,strict-server -package gen -o ../internal/handler/gen/api.gen.go openapi.yaml

// OpenAPI contains the raw bytes of openapi.yaml, embedded at compile time.
// Serving it from the binary means the document and the running code are always in sync.
//
//go:embed openapi.yaml
var OpenAPI []byte
