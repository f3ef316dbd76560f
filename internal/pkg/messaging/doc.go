// Package messaging publishes and consumes domain events over a pluggable broker.
//
// Supported drivers are NATS, NSQ, Kafka, Google Pub/Sub and an in-process
// memory broker for single-node deployments and tests. Consume blocks until
// its context ends; a handler error asks the broker for redelivery when the
// broker supports it.
package messaging
