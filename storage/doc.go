// Package storage houses concrete implementations of core.ConversationStore.
// The interface itself lives in core to centralize domain contracts; keeping
// only implementations here prevents higher level packages from depending on
// concrete persistence.
//
// Additional backends belong in sub-packages (see storage/dynamodb) so only
// the wiring layer decides which implementation to instantiate.
package storage
