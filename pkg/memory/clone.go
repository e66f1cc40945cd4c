package memory

func cloneRecord(record MemoryRecord) MemoryRecord {
	clone := record
	clone.Data = cloneData(record.Data)
	return clone
}

func cloneRecords(records []MemoryRecord) []MemoryRecord {
	if records == nil {
		return nil
	}
	out := make([]MemoryRecord, len(records))
	for i, record := range records {
		out[i] = cloneRecord(record)
	}
	return out
}

func cloneData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for key, value := range data {
		out[key] = value
	}
	return out
}
