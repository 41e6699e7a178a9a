package v1

// Question is a stored question in wire form. Section 2 questions carry an
// introduction and conversation; section 3 questions carry a situation.
type Question struct {
	ID           string    `json:"id,omitempty"`
	SourceID     string    `json:"source_id,omitempty"`
	Section      int       `json:"section"`
	Introduction string    `json:"introduction,omitempty"`
	Conversation string    `json:"conversation,omitempty"`
	Situation    string    `json:"situation,omitempty"`
	Question     string    `json:"question"`
	Options      [4]string `json:"options"`
}

// SearchHit is one similarity search result. Distance is the raw angular
// distance; lower is more similar.
type SearchHit struct {
	Question Question `json:"question"`
	Distance float32  `json:"distance"`
}
