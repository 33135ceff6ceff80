// Package collect walks the issue graph around an activity filter: direct
// matches seed the set, epics pull in their children, then links and sub-tasks
// widen it. Every stage deduplicates through a shared NodeStore.
package collect

import (
	"sync"
)

// Stage identifies the traversal stage that discovered a node.
type Stage string

const (
	StageDirect  Stage = "direct"
	StageEpic    Stage = "epic"
	StageLink    Stage = "link"
	StageSubtask Stage = "subtask"
)

// Origin records how a node entered the set: the stage that found it and the
// issue it was reached through. Direct matches have no Via.
type Origin struct {
	Stage Stage
	Via   string
}

// Node is one collected issue with its provenance. Summary and IssueType are
// populated when the discovering stage had them; link and sub-task discoveries
// start out key-only.
type Node struct {
	Key       string
	Summary   string
	IssueType string
	Origin    Origin
}

// IsEpic returns true when the node is an epic container.
func (node Node) IsEpic() bool {
	return node.IssueType == "Epic"
}

// Failure records one skipped expansion step.
type Failure struct {
	Key   string
	Stage Stage
	Err   error
}

// Result is the outcome of a collection run: the deduplicated node set in
// discovery order and the steps that had to be skipped.
type Result struct {
	Nodes    []Node
	Failures []Failure
}

// Keys returns the node keys in discovery order.
func (result *Result) Keys() []string {
	keys := make([]string, 0, len(result.Nodes))

	for _, node := range result.Nodes {
		keys = append(keys, node.Key)
	}

	return keys
}

// NodeStore deduplicates discovered nodes by key while preserving
// first-insertion order. Append-only during a run.
type NodeStore struct {
	mu    sync.RWMutex
	nodes map[string]Node
	order []string
}

func NewNodeStore() *NodeStore {
	return &NodeStore{
		nodes: make(map[string]Node),
	}
}

// Add inserts the node when its key is new and reports whether it was inserted.
// A key that is already present keeps its original node untouched.
func (store *NodeStore) Add(node Node) bool {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, ok := store.nodes[node.Key]; ok {
		return false
	}

	store.nodes[node.Key] = node
	store.order = append(store.order, node.Key)

	return true
}

// Has reports whether the key is already collected.
func (store *NodeStore) Has(key string) bool {
	store.mu.RLock()
	defer store.mu.RUnlock()

	_, ok := store.nodes[key]

	return ok
}

// Get returns the node for the key.
func (store *NodeStore) Get(key string) (Node, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	node, ok := store.nodes[key]

	return node, ok
}

// Len returns the number of collected nodes.
func (store *NodeStore) Len() int {
	store.mu.RLock()
	defer store.mu.RUnlock()

	return len(store.order)
}

// Keys returns a copy of the collected keys in discovery order.
func (store *NodeStore) Keys() []string {
	store.mu.RLock()
	defer store.mu.RUnlock()

	keys := make([]string, len(store.order))
	copy(keys, store.order)

	return keys
}

// Nodes returns a copy of the collected nodes in discovery order.
func (store *NodeStore) Nodes() []Node {
	store.mu.RLock()
	defer store.mu.RUnlock()

	nodes := make([]Node, 0, len(store.order))

	for _, key := range store.order {
		nodes = append(nodes, store.nodes[key])
	}

	return nodes
}

// Epics returns the keys of collected epic nodes in discovery order.
func (store *NodeStore) Epics() []string {
	store.mu.RLock()
	defer store.mu.RUnlock()

	var keys []string

	for _, key := range store.order {
		if store.nodes[key].IsEpic() {
			keys = append(keys, key)
		}
	}

	return keys
}

// failureList accumulates failures from concurrent expansion tasks.
type failureList struct {
	mu       sync.Mutex
	failures []Failure
}

func (list *failureList) add(key string, stage Stage, err error) {
	list.mu.Lock()
	defer list.mu.Unlock()

	list.failures = append(list.failures, Failure{Key: key, Stage: stage, Err: err})
}

func (list *failureList) all() []Failure {
	list.mu.Lock()
	defer list.mu.Unlock()

	failures := make([]Failure, len(list.failures))
	copy(failures, list.failures)

	return failures
}
