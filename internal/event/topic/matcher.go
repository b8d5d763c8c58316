package topic

// Matcher finds the subscribed patterns matching a concrete topic using a trie.
//
// Matcher is not safe for concurrent use; the event bus it serves runs on a
// single goroutine.
type Matcher struct {
	root *trieNode
}

type trieNode struct {
	children map[string]*trieNode
	patterns []Topic // Patterns that terminate at this node
}

func newTrieNode() *trieNode {
	return &trieNode{
		children: make(map[string]*trieNode),
	}
}

func (n *trieNode) isEmpty() bool {
	return len(n.children) == 0 && len(n.patterns) == 0
}

// NewMatcher creates a new topic matcher.
func NewMatcher() *Matcher {
	return &Matcher{
		root: newTrieNode(),
	}
}

// Add adds a pattern to the matcher. Adding an existing pattern is a no-op.
func (m *Matcher) Add(pattern Topic) {
	if pattern == "" {
		return
	}

	node := m.root
	for _, seg := range pattern.Segments() {
		if node.children[seg] == nil {
			node.children[seg] = newTrieNode()
		}
		node = node.children[seg]
	}

	for _, p := range node.patterns {
		if p == pattern {
			return
		}
	}
	node.patterns = append(node.patterns, pattern)
}

// Remove removes a pattern and prunes the branches it leaves empty.
func (m *Matcher) Remove(pattern Topic) {
	if pattern == "" {
		return
	}

	type step struct {
		node *trieNode
		key  string
	}

	segments := pattern.Segments()
	path := make([]step, 0, len(segments)+1)
	path = append(path, step{node: m.root})

	node := m.root
	for _, seg := range segments {
		child := node.children[seg]
		if child == nil {
			return
		}
		path = append(path, step{node: child, key: seg})
		node = child
	}

	for i, p := range node.patterns {
		if p == pattern {
			node.patterns = append(node.patterns[:i], node.patterns[i+1:]...)
			break
		}
	}

	for i := len(path) - 1; i > 0; i-- {
		if !path[i].node.isEmpty() {
			break
		}
		delete(path[i-1].node.children, path[i].key)
	}
}

// Has returns true if the exact pattern exists in the matcher.
func (m *Matcher) Has(pattern Topic) bool {
	if pattern == "" {
		return false
	}

	node := m.root
	for _, seg := range pattern.Segments() {
		if node.children[seg] == nil {
			return false
		}
		node = node.children[seg]
	}

	for _, p := range node.patterns {
		if p == pattern {
			return true
		}
	}
	return false
}

// Match returns all patterns that match the given topic.
// The topic should not contain wildcards. Each pattern is reported once.
func (m *Matcher) Match(eventTopic Topic) []Topic {
	if eventTopic == "" {
		return nil
	}

	var matches []Topic
	seen := make(map[Topic]bool)
	m.matchRecursive(m.root, eventTopic.Segments(), 0, seen, &matches)
	return matches
}

func (m *Matcher) matchRecursive(node *trieNode, segments []string, depth int, seen map[Topic]bool, matches *[]Topic) {
	if node == nil {
		return
	}

	if depth == len(segments) {
		for _, p := range node.patterns {
			if !seen[p] {
				seen[p] = true
				*matches = append(*matches, p)
			}
		}
		// ** at the end can match zero segments
		if child := node.children[WildcardMulti]; child != nil {
			m.matchRecursive(child, segments, depth, seen, matches)
		}
		return
	}

	segment := segments[depth]

	if child := node.children[segment]; child != nil {
		m.matchRecursive(child, segments, depth+1, seen, matches)
	}

	if child := node.children[WildcardSingle]; child != nil {
		m.matchRecursive(child, segments, depth+1, seen, matches)
	}

	if child := node.children[WildcardMulti]; child != nil {
		for i := depth; i <= len(segments); i++ {
			m.matchRecursive(child, segments, i, seen, matches)
		}
	}
}

// Count returns the number of patterns in the matcher.
func (m *Matcher) Count() int {
	return countPatterns(m.root)
}

func countPatterns(node *trieNode) int {
	count := len(node.patterns)
	for _, child := range node.children {
		count += countPatterns(child)
	}
	return count
}
