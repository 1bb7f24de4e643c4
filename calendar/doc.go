// Package calendar abstracts the external calendar a meeting is created in.
// A Provider exposes the two operations the workflow needs: creating the
// event on final approval and listing events for availability checks. Reads
// may be retried; writes never are, so a slow provider cannot double-book.
package calendar
