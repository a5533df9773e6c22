package history

import "time"

// OperationInfo describes an entry on the undo or redo stack.
type OperationInfo struct {
	Description string
	Timestamp   time.Time
}

// undoEntry wraps a command with metadata.
type undoEntry struct {
	command   Command
	timestamp time.Time
}

func (e *undoEntry) info() OperationInfo {
	return OperationInfo{
		Description: e.command.Description(),
		Timestamp:   e.timestamp,
	}
}

func infos(entries []*undoEntry) []OperationInfo {
	result := make([]OperationInfo, len(entries))
	for i, entry := range entries {
		result[i] = entry.info()
	}
	return result
}
