// Package core centralizes the domain contracts shared by every other
// package: conversation messages and contexts, the incrementally built
// meeting draft, the workflow step machine's state, the structured prompt
// sum type and the response envelope returned to the chat layer.
//
// Interfaces consumed across package boundaries (ConversationStore) live
// here so leaf packages can provide implementations without an import cycle;
// concrete stores belong to the storage package.
package core
