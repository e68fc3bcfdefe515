package remote

import (
	"bytes"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"

	"github.com/vectable/vectable-go/internal/errors"
)

// BatchesToIPC drains a record reader into Arrow IPC stream bytes, the wire
// format the table service accepts for batch-carrying operations
func BatchesToIPC(reader array.RecordReader) ([]byte, error) {
	var buf bytes.Buffer

	writer := ipc.NewWriter(&buf, ipc.WithSchema(reader.Schema()))

	for reader.Next() {
		if err := writer.Write(reader.RecordBatch()); err != nil {
			return nil, errors.Wrap(err, errors.ErrTypeInternal, "failed to encode batch")
		}
	}

	if err := reader.Err(); err != nil {
		return nil, err
	}

	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeInternal, "failed to finish IPC stream")
	}

	return buf.Bytes(), nil
}
