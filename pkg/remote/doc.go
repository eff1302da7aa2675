// Package remote mirrors a fiber engine's host tree across a transport.
//
// Host implements host.Host by allocating numeric node IDs and queueing
// one protocol.Mutation per primitive. After each commit the owner calls
// Flush and ships the resulting protocol.Batch. Listeners stay on the
// server side; an incoming protocol.Event is routed to them by Dispatch.
//
// Replica is the other end: it applies batches, in sequence order, to a
// memhost.Document and reports fired listeners as protocol.Events.
package remote
