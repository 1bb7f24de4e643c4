// Package model defines the provider-agnostic abstraction for the language
// model backends consumed by the router.
//
// Core goals:
//   - Keep request/response shapes minimal and transport independent
//   - Treat backends as opaque text-in/text-out services; any structure
//     embedded in responses is the router's concern
//   - Facilitate lightweight mocking for tests (MockBackend)
//
// Providers (OpenAI, Anthropic) implement the Model interface from this
// package so higher layers remain decoupled from vendor SDKs.
package model
