// Package notify publishes meeting lifecycle events (created, approved,
// availability conflicts) to interested consumers over a message broker.
// Publishing is best effort from the workflow's point of view: a broker
// outage must never fail a meeting creation, so the façade wires the AMQP
// publisher behind a logging fallback.
package notify
