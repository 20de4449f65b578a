package models

// MatchOptions are the constraints a user opts into when joining the
// discovery queue. OR semantics: if either side of a candidate pair sets a
// flag, the corresponding attribute must be equal for the pair to match.
type MatchOptions struct {
	SameYear       bool `json:"sameYear"`
	SameDepartment bool `json:"sameDepartment"`
}

// MatchResult pairs two user ids with the channel created for them.
// Transient: produced by the discovery queue, consumed immediately by the
// delivery bridge, never persisted.
type MatchResult struct {
	UserIDs [2]string
	Channel *Channel
}
