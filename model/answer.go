package model

// Turn is one prior question/answer exchange in a conversation.
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Answer is the pipeline output for one question. Sources and ChunkIDs hold
// exactly the chunks passed to the generator for this question, in retrieval
// order, even when the generated text does not cite all of them.
type Answer struct {
	Text     string   `json:"text"`
	Sources  []string `json:"sources"`
	ChunkIDs []string `json:"chunk_ids"`
}

// RetrievalCount returns the number of chunks that grounded this answer.
func (a *Answer) RetrievalCount() int {
	return len(a.ChunkIDs)
}
