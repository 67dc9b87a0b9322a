/*
Package persistence implements the persistence bridge between an editor and a flow store.

It serializes loads and saves per flow ID across goroutines and, when a
ports.DistributedLocker is configured, across replicas. Every operation is
traced with OpenTelemetry under the "flowdeck.persistence" scope.
*/
package persistence
