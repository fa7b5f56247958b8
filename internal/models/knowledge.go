package models

import "time"

// KnowledgeEntry is a domain note the retriever can surface to the generator
type KnowledgeEntry struct {
	ID        string    `json:"id" toml:"id" badgerhold:"key"`
	Text      string    `json:"text" toml:"text"`
	Tags      []string  `json:"tags" toml:"tags"`
	CreatedAt time.Time `json:"created_at" toml:"-"`
}
