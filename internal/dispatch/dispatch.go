// Package dispatch assigns credentials to topics.
//
// Assignment is a pure function of topic position: topic i always gets
// pool[i mod len(pool)]. It deliberately does not depend on submission
// outcomes or runtime scheduling, so a failed submission never skips or
// reuses a credential out of turn, and no shared counter needs locking
// under concurrent submission.
package dispatch

import (
	"topicherd/internal/credential"
	"topicherd/internal/topics"
)

// Record pairs one topic with the credential that must submit it.
type Record struct {
	Index      int
	Topic      topics.Topic
	Credential credential.Credential
}

// Assign produces one Record per topic, in order. The pool must be non-empty;
// credential.FromEnv guarantees that before this is ever called.
func Assign(list []topics.Topic, pool credential.Pool) []Record {
	records := make([]Record, len(list))
	for i, t := range list {
		records[i] = Record{
			Index:      i,
			Topic:      t,
			Credential: pool[i%len(pool)],
		}
	}
	return records
}
