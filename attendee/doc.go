// Package attendee validates meeting participant email addresses, singly or
// in batch. Verification prefers a backend-assisted check through the router;
// when the backend is unreachable the validator degrades to a local format
// check and marks the result untrusted, so attendee collection is never
// blocked by an outage.
package attendee
