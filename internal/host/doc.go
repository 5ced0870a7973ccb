// Package host defines the capabilities the gateway needs from the node
// process it is embedded in.
//
// Handle is the narrow surface the gateway consumes: the node's feed
// identity and a pull-based view of its messages. Local is an in-process
// implementation used by the standalone server and by tests.
package host
