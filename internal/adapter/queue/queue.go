package queue

// MessageQueue is the broker-neutral transport carrying conversation traffic:
// transcript events and room signals in, synthesis requests out. Subjects are
// flat topic names; fan-out semantics, no delivery guarantees beyond what the
// broker gives.
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte) error) error
	Close() error
}
