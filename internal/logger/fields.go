package logger

// Standard field keys for structured logging. Use these consistently across
// all log statements so output stays queryable.
const (
	// Block identity
	KeyBlock   = "block"    // Block type: hdfs_sink, hdfs_source
	KeyBlockID = "block_id" // Unique block instance identifier

	// Remote file
	KeyPath    = "path"    // Full remote file path
	KeyAddress = "address" // Storage service address (host:port)
	KeyUser    = "user"    // User identity passed to the storage service

	// Transfer
	KeyOp        = "op"         // Remote operation: GETFILESTATUS, CREATE, DELETE, APPEND, OPEN
	KeyOffset    = "offset"     // Stream offset for ranged reads
	KeyBytes     = "bytes"      // Byte count of the data in flight
	KeyChunks    = "chunks"     // Number of chunks
	KeyQueueLen  = "queue_len"  // Transfer queue depth
	KeyItems     = "items"      // Whole sample items transferred
	KeySampleFmt = "sample_fmt" // Sample type name

	// Outcomes
	KeyStatus     = "status"      // HTTP status code
	KeyError      = "error"       // Error message
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
)
