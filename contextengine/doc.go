// Package contextengine owns the per-conversation state: it appends messages,
// derives the conversational mode, merges partial meeting data into the draft
// and keeps the live message window inside a bounded token budget through
// compression.
//
// Compression is an infrastructure optimization, never a user-visible
// operation: summarization backend failure degrades silently to window
// compression, and the full history always remains in the store for audit
// retrieval. The live window preserves append order; compression reduces
// which messages are kept, never their order.
package contextengine
