package dispatch

import (
	"encoding/json"
	"fmt"
	"reflect"
	"testing"

	"topicherd/internal/credential"
	"topicherd/internal/topics"
)

func mkTopics(n int) []topics.Topic {
	out := make([]topics.Topic, n)
	for i := range out {
		out[i] = topics.Topic{
			Title:    fmt.Sprintf("topic-%d", i),
			Body:     "body",
			Category: json.RawMessage("1"),
		}
	}
	return out
}

func TestAssignModulo(t *testing.T) {
	t.Parallel()
	for _, poolSize := range []int{1, 2, 3, 7} {
		for _, topicCount := range []int{0, 1, 5, 20} {
			pool := make(credential.Pool, poolSize)
			for i := range pool {
				pool[i] = credential.Credential{Username: fmt.Sprintf("u%d", i), APIKey: fmt.Sprintf("k%d", i)}
			}
			records := Assign(mkTopics(topicCount), pool)
			if len(records) != topicCount {
				t.Fatalf("P=%d T=%d: len = %d", poolSize, topicCount, len(records))
			}
			for i, rec := range records {
				want := pool[i%poolSize]
				if rec.Credential != want {
					t.Fatalf("P=%d T=%d: records[%d].Credential = %v, want %v", poolSize, topicCount, i, rec.Credential, want)
				}
				if rec.Index != i {
					t.Fatalf("records[%d].Index = %d", i, rec.Index)
				}
			}
		}
	}
}

func TestAssignDeterministic(t *testing.T) {
	t.Parallel()
	pool := credential.Pool{
		{Username: "a", APIKey: "ka"},
		{Username: "b", APIKey: "kb"},
	}
	list := mkTopics(9)
	first := Assign(list, pool)
	second := Assign(list, pool)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("Assign is not deterministic for identical input")
	}
}

func TestAssignTwoAccountsThreeTopics(t *testing.T) {
	t.Parallel()
	pool := credential.Pool{
		{Username: "A", APIKey: "ka"},
		{Username: "B", APIKey: "kb"},
	}
	records := Assign(mkTopics(3), pool)
	want := []string{"A", "B", "A"}
	for i, w := range want {
		if records[i].Credential.Username != w {
			t.Fatalf("records[%d] assigned to %s, want %s", i, records[i].Credential.Username, w)
		}
	}
}
