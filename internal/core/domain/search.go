package domain

// SearchOptions configures a similarity search.
type SearchOptions struct {
	// MaxResults is the maximum number of results to return.
	MaxResults int

	// MinSimilarity drops hits scoring below this threshold.
	// Scores are cosine similarities in [-1, 1].
	MinSimilarity float64
}

// SearchResult is a single ranked hit joined with its source document.
type SearchResult struct {
	// Segment is the matched segment.
	Segment Segment

	// Document is the segment's source document.
	Document Document

	// Score is the cosine similarity between the query and the segment.
	Score float64
}

// Stats summarises the state of the document corpus and the index.
type Stats struct {
	TotalDocuments int
	Pending        int
	Processing     int
	Completed      int
	Failed         int
	TotalSegments  int
	ActiveVectors  int
}
