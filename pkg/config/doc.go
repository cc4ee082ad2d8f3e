// Package config loads typed configuration structs from environment
// variables, with optional .env file support for local development.
//
// Each package that needs configuration declares its own Config struct with
// `env:` tags and the composition root loads them once at startup. There is
// no runtime mutation: configuration is resolved once and injected into the
// components that need it.
package config
