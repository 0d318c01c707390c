// Package backend describes the opaque transport/project/credentials
// descriptor a Service Core is constructed with. The runtime treats it as
// a value: it never inspects the filesystem itself, and resolves
// credentials only through an injected CredentialsProvider.
package backend

// Kind names which transport binding a Backend selects.
type Kind string

const (
	// GCPPubSub selects the Google Cloud Pub/Sub transport binding.
	GCPPubSub Kind = "GCPPubSubBackend"

	// NSQ selects the NSQ transport binding, primarily used for local
	// development and tests that want a real (non-cloud) broker.
	NSQ Kind = "NSQBackend"

	// Memory selects the in-memory transport binding used by tests.
	Memory Kind = "MemoryBackend"
)

// Backend is the opaque descriptor a Service Core is constructed with. Its
// fields beyond Kind are transport-specific and are consumed only by the
// transport implementation that Kind selects.
type Backend struct {
	Kind Kind

	// ProjectID is the cloud project (GCP) a topic/subscription lives in.
	// Unused by the NSQ and Memory bindings.
	ProjectID string

	// NSQAddr is the NSQ daemon address ("host:port"). Only used when
	// Kind == NSQ.
	NSQAddr string

	// CredentialsEnvVar names the environment variable a
	// CredentialsProvider should resolve to obtain credentials for this
	// backend. Empty means no credentials are required (e.g. local NSQ,
	// or an already-authenticated ambient environment).
	CredentialsEnvVar string
}

// CredentialsProvider resolves a named credentials source into a value the
// transport implementation can use (a JSON key, a token, a connection
// string). The runtime never reads the filesystem directly; it always
// goes through one of these.
type CredentialsProvider interface {
	Credentials(sourceEnvVar string) (string, error)
}
