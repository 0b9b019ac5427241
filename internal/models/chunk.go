package models

// Chunk is a final chunk handed to storage.
// Text may start with overlap copied from the previous chunk; CoreText never does.
type Chunk struct {
	ID            string  `json:"id"`
	Headers       Headers `json:"headers"`
	Text          string  `json:"text"`
	TokenCount    int     `json:"token_count"`
	SourceURL     string  `json:"source_url"`
	PageTitle     string  `json:"page_title"`
	PageIndex     int     `json:"-"`
	CoreText      string  `json:"-"`
	CoreTokens    int     `json:"-"`
	OverlapTokens int     `json:"-"`
}

// ChunkRecord is the wire shape consumed by the embedding and vector-storage collaborators.
type ChunkRecord struct {
	ChunkID  string        `json:"chunk_id"`
	Metadata RecordMeta    `json:"metadata"`
	Data     RecordContent `json:"data"`
}

// RecordMeta is the metadata block of a ChunkRecord.
type RecordMeta struct {
	TokenCount int    `json:"token_count"`
	SourceURL  string `json:"source_url"`
	PageTitle  string `json:"page_title"`
}

// RecordContent is the data block of a ChunkRecord.
type RecordContent struct {
	Headers Headers `json:"headers"`
	Text    string  `json:"text"`
}

// Record converts a chunk to its wire shape.
func (c *Chunk) Record() ChunkRecord {
	return ChunkRecord{
		ChunkID: c.ID,
		Metadata: RecordMeta{
			TokenCount: c.TokenCount,
			SourceURL:  c.SourceURL,
			PageTitle:  c.PageTitle,
		},
		Data: RecordContent{
			Headers: c.Headers,
			Text:    c.Text,
		},
	}
}

// Records converts chunks to wire records, preserving order.
func Records(chunks []*Chunk) []ChunkRecord {
	out := make([]ChunkRecord, len(chunks))
	for i, c := range chunks {
		out[i] = c.Record()
	}
	return out
}

// OutOfBoundChunk is one entry of the diagnostics artifact.
type OutOfBoundChunk struct {
	ID      string  `json:"id"`
	Size    int     `json:"size"`
	Headers Headers `json:"headers"`
	Text    string  `json:"text"`
}

// Diagnostics lists chunks whose final token count falls outside [min, max].
type Diagnostics struct {
	TooSmall []OutOfBoundChunk `json:"too_small"`
	TooLarge []OutOfBoundChunk `json:"too_large"`
}

// Empty reports whether there is nothing worth writing.
func (d *Diagnostics) Empty() bool {
	return d == nil || (len(d.TooSmall) == 0 && len(d.TooLarge) == 0)
}
