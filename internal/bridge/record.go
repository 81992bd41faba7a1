package bridge

import "fmt"

// Attribute names carried on published messages so the reverse
// direction can restore routing.
const (
	KeyAttribute       = "key"
	PartitionAttribute = "partition"
)

// TopicPartition identifies one log partition; it keys every
// per-partition structure in this package.
type TopicPartition struct {
	Topic     string
	Partition int32
}

func (tp TopicPartition) String() string {
	return fmt.Sprintf("%s/%d", tp.Topic, tp.Partition)
}

// SourceRecord is one record emitted toward the log. Key is nil when
// the configured key attribute was absent on the pulled message.
type SourceRecord struct {
	Topic     string
	Partition int32
	Key       []byte
	Value     []byte
}

// SinkRecord is one log record handed to the sink pipeline. Value is
// kept untyped so the pipeline can reject anything that is not raw
// bytes with a SchemaError.
type SinkRecord struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     any
}

// SchemaError reports a sink record whose payload is not the expected
// byte-sequence encoding. It is malformed input, never retried.
type SchemaError struct {
	Got any
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("unexpected record payload of type %T, want []byte", e.Got)
}
